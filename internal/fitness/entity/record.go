package entity

import (
	"encoding/json"
	"time"
)

// DayLayout matches JavaScript's Date.prototype.toDateString.
const DayLayout = "Mon Jan 02 2006"

// Day is a calendar day (UTC midnight).
type Day struct {
	time.Time
}

func NewDay(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Day) String() string {
	return d.Format(DayLayout)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// DailyRecord is the canonical per-day shape. Every field defaults to zero
// independently of the others.
type DailyRecord struct {
	Date                Day        `json:"date"`
	StepCount           int64      `json:"step_count"`
	GlucoseLevel        float64    `json:"glucose_level"`
	BloodPressure       [2]float64 `json:"blood_pressure"`
	HeartRate           float64    `json:"heart_rate"`
	Weight              float64    `json:"weight"`
	HeightInCms         float64    `json:"height_in_cms"`
	SleepHours          RawValues  `json:"sleep_hours"`
	BodyFatInPercent    float64    `json:"body_fat_in_percent"`
	MenstrualCycleStart int64      `json:"menstrual_cycle_start"`
}
