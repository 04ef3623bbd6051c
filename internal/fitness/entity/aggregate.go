package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Millis is an epoch-milliseconds timestamp. Google encodes int64 fields as
// JSON strings; plain numbers are accepted too. Anything unparsable decodes
// as 0 rather than failing the whole response.
type Millis int64

func (m *Millis) UnmarshalJSON(b []byte) error {
	v, _ := parseInt(b)
	*m = Millis(v)
	return nil
}

// parseInt reads an integer that may be quoted.
func parseInt(b []byte) (int64, bool) {
	v, err := strconv.ParseInt(string(bytes.Trim(b, `"`)), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (m Millis) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(m), 10))), nil
}

func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

// AggregateResponse is the body of users.dataset.aggregate.
type AggregateResponse struct {
	Bucket []Bucket `json:"bucket"`
}

type Bucket struct {
	StartTimeMillis Millis    `json:"startTimeMillis"`
	EndTimeMillis   Millis    `json:"endTimeMillis"`
	Dataset         []Dataset `json:"dataset"`
}

type Dataset struct {
	DataSourceID string  `json:"dataSourceId"`
	Point        []Point `json:"point"`
}

type Point struct {
	StartTimeNanos     string  `json:"startTimeNanos,omitempty"`
	EndTimeNanos       string  `json:"endTimeNanos,omitempty"`
	DataTypeName       string  `json:"dataTypeName,omitempty"`
	OriginDataSourceID string  `json:"originDataSourceId,omitempty"`
	Value              []Value `json:"value"`
}

// Value is one typed slot of a data point; at most one field is set.
// Each slot decodes on its own, so a malformed slot is left unset instead
// of failing the whole response.
type Value struct {
	IntVal    *int64     `json:"intVal,omitempty"`
	FpVal     *float64   `json:"fpVal,omitempty"`
	StringVal *string    `json:"stringVal,omitempty"`
	MapVal    []MapEntry `json:"mapVal,omitempty"`
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var slots map[string]json.RawMessage
	if err := json.Unmarshal(b, &slots); err != nil {
		*v = Value{}
		return nil
	}
	var out Value
	if raw, ok := slots["intVal"]; ok {
		if i, ok := parseInt(raw); ok {
			out.IntVal = &i
		}
	}
	if raw, ok := slots["fpVal"]; ok {
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			out.FpVal = &f
		}
	}
	if raw, ok := slots["stringVal"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out.StringVal = &s
		}
	}
	if raw, ok := slots["mapVal"]; ok {
		var entries []MapEntry
		if err := json.Unmarshal(raw, &entries); err == nil {
			out.MapVal = entries
		}
	}
	*v = out
	return nil
}

type MapEntry struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// RawValues is a value array passed through untouched. It encodes as 0 when
// nil so the field keeps a numeric default.
type RawValues []Value

func (v RawValues) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("0"), nil
	}
	return json.Marshal([]Value(v))
}

func (v *RawValues) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		*v = nil
		return nil
	}
	var vals []Value
	if err := json.Unmarshal(b, &vals); err != nil {
		return err
	}
	*v = vals
	return nil
}
