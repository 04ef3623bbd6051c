package fitness

import (
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/fitness/entity"
)

// Derived data sources Google Fit emits for the aggregated metric types.
const (
	SourceStepCount = "derived:com.google.step_count.delta:com.google.android.gms:aggregated"
	SourceGlucose   = "derived:com.google.blood_glucose.summary:com.google.android.gms:aggregated"
	SourcePressure  = "derived:com.google.blood_pressure.summary:com.google.android.gms:aggregated"
	SourceHeartRate = "derived:com.google.heart_rate.summary:com.google.android.gms:aggregated"
	SourceWeight    = "derived:com.google.weight.summary:com.google.android.gms:aggregated"
	SourceHeight    = "derived:com.google.height.summary:com.google.android.gms:aggregated"
	SourceSleep     = "derived:com.google.sleep.segment:com.google.android.gms:merged"
	SourceBodyFat   = "derived:com.google.body.fat.percentage.summary:com.google.android.gms:aggregated"
	SourceMenstrual = "derived:com.google.menstruation:com.google.android.gms:aggregated"
)

// glucoseScale is applied to the provider's glucose value as-is; the
// dashboard has always displayed the scaled figure.
const glucoseScale = 10

// heightCentimeters converts metres to centimetres.
const heightCentimeters = 100

// applyFunc writes the values of a dataset's first point into a record.
type applyFunc func(rec *entity.DailyRecord, values []entity.Value)

var dataSourceFields = map[string]applyFunc{
	SourceStepCount: func(rec *entity.DailyRecord, v []entity.Value) {
		rec.StepCount = intAt(v, 0)
	},
	SourceGlucose: func(rec *entity.DailyRecord, v []entity.Value) {
		rec.GlucoseLevel = floatAt(v, 0) * glucoseScale
	},
	SourcePressure: func(rec *entity.DailyRecord, v []entity.Value) {
		rec.BloodPressure = [2]float64{floatAt(v, 0), floatAt(v, 1)}
	},
	SourceHeartRate: func(rec *entity.DailyRecord, v []entity.Value) {
		rec.HeartRate = floatAt(v, 0)
	},
	SourceWeight: func(rec *entity.DailyRecord, v []entity.Value) {
		rec.Weight = floatAt(v, 0)
	},
	SourceHeight: func(rec *entity.DailyRecord, v []entity.Value) {
		rec.HeightInCms = floatAt(v, 0) * heightCentimeters
	},
	SourceSleep: func(rec *entity.DailyRecord, v []entity.Value) {
		if v != nil {
			rec.SleepHours = append(entity.RawValues{}, v...)
		}
	},
	SourceBodyFat: func(rec *entity.DailyRecord, v []entity.Value) {
		rec.BodyFatInPercent = floatAt(v, 0)
	},
	SourceMenstrual: func(rec *entity.DailyRecord, v []entity.Value) {
		rec.MenstrualCycleStart = intAt(v, 0)
	},
}

// Normalize maps an aggregate response onto one DailyRecord per bucket, in
// bucket order. Unknown data sources and empty datasets leave the record's
// defaults in place; only the first point of a dataset is read.
func Normalize(resp *entity.AggregateResponse) []entity.DailyRecord {
	if resp == nil {
		return []entity.DailyRecord{}
	}
	out := make([]entity.DailyRecord, 0, len(resp.Bucket))
	for _, b := range resp.Bucket {
		rec := entity.DailyRecord{Date: entity.NewDay(b.StartTimeMillis.Time())}
		for _, ds := range b.Dataset {
			apply, ok := dataSourceFields[ds.DataSourceID]
			if !ok || len(ds.Point) == 0 {
				continue
			}
			apply(&rec, ds.Point[0].Value)
		}
		out = append(out, rec)
	}
	return out
}

func intAt(v []entity.Value, i int) int64 {
	if i >= len(v) || v[i].IntVal == nil {
		return 0
	}
	return *v[i].IntVal
}

func floatAt(v []entity.Value, i int) float64 {
	if i >= len(v) || v[i].FpVal == nil {
		return 0
	}
	return *v[i].FpVal
}
