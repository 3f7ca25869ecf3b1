package health

import "github.com/oksasatya/medtracker/internal/domain/entity"

// Assessment is one classified metric of a record.
type Assessment struct {
	Metric   Metric   `json:"metric"`
	Value    float64  `json:"value"`
	Value2   *float64 `json:"value2,omitempty"`
	Category Category `json:"category"`
}

// readings lists the metrics stored on a record in display order. Optional
// blood counts are present only when recorded.
func readings(r entity.HealthRecord) []metricReading {
	out := []metricReading{
		{MetricBMI, Reading{Value: r.BMI}},
		{MetricBloodPressure, Reading{Value: r.SystolicBP, Secondary: r.DiastolicBP}},
		{MetricHeartRate, Reading{Value: r.HeartRate}},
		{MetricBloodSugar, Reading{Value: r.BloodSugar}},
		{MetricCholesterol, Reading{Value: r.Cholesterol}},
		{MetricWeight, Reading{Value: r.Weight}},
		{MetricHeight, Reading{Value: r.Height}},
	}
	optional := []struct {
		m Metric
		v *float64
	}{
		{MetricHemoglobin, r.Hemoglobin},
		{MetricRBC, r.RBCCount},
		{MetricWBC, r.WBCCount},
		{MetricPlatelet, r.PlateletCount},
	}
	for _, o := range optional {
		if o.v != nil {
			out = append(out, metricReading{o.m, Reading{Value: *o.v}})
		}
	}
	return out
}

type metricReading struct {
	metric  Metric
	reading Reading
}

// Assess classifies every classifiable metric present on the record.
func Assess(r entity.HealthRecord, s Subject) []Assessment {
	var out []Assessment
	for _, mr := range readings(r) {
		if !Classifiable(mr.metric) {
			continue
		}
		a := Assessment{
			Metric:   mr.metric,
			Value:    mr.reading.Value,
			Category: mustClassify(mr.metric, mr.reading, s),
		}
		if mr.metric == MetricBloodPressure {
			d := mr.reading.Secondary
			a.Value2 = &d
		}
		out = append(out, a)
	}
	return out
}
