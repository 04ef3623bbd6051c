package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMillisAcceptsStringAndNumber(t *testing.T) {
	var b struct {
		A Millis `json:"a"`
		B Millis `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1760572800000","b":1760572800000}`), &b))
	assert.Equal(t, Millis(1760572800000), b.A)
	assert.Equal(t, b.A, b.B)

	bad := Millis(7)
	require.NoError(t, json.Unmarshal([]byte(`"soon"`), &bad))
	assert.Equal(t, Millis(0), bad)
}

func TestValueDecodesSlotsIndependently(t *testing.T) {
	var vals []Value
	require.NoError(t, json.Unmarshal([]byte(`[
		{"intVal":"12","fpVal":"n/a"},
		{"fpVal":5.5,"mapVal":"broken"},
		"not an object"
	]`), &vals))
	require.Len(t, vals, 3)

	require.NotNil(t, vals[0].IntVal)
	assert.Equal(t, int64(12), *vals[0].IntVal)
	assert.Nil(t, vals[0].FpVal)

	require.NotNil(t, vals[1].FpVal)
	assert.Equal(t, 5.5, *vals[1].FpVal)
	assert.Nil(t, vals[1].MapVal)

	assert.Equal(t, Value{}, vals[2])
}

func TestDayFormat(t *testing.T) {
	d := NewDay(time.Date(2026, time.October, 16, 22, 30, 0, 0, time.UTC))
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"Fri Oct 16 2026"`, string(raw))

	var back Day
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(d.Time))
}

func TestDefaultRecordJSON(t *testing.T) {
	rec := DailyRecord{Date: NewDay(time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC))}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"date": "Fri Oct 16 2026",
		"step_count": 0,
		"glucose_level": 0,
		"blood_pressure": [0, 0],
		"heart_rate": 0,
		"weight": 0,
		"height_in_cms": 0,
		"sleep_hours": 0,
		"body_fat_in_percent": 0,
		"menstrual_cycle_start": 0
	}`, string(raw))
}

func TestRawValuesPassThrough(t *testing.T) {
	stage := int64(4)
	vals := RawValues{{IntVal: &stage}}
	raw, err := json.Marshal(vals)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"intVal":4}]`, string(raw))

	var back RawValues
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Len(t, back, 1)
	assert.Equal(t, int64(4), *back[0].IntVal)

	require.NoError(t, json.Unmarshal([]byte(`0`), &back))
	assert.Nil(t, back)
}
