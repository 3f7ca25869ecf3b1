package health

import "github.com/oksasatya/medtracker/internal/domain/entity"

// Direction of a metric between two records.
type Direction string

const (
	DirectionIncrease  Direction = "increase"
	DirectionDecrease  Direction = "decrease"
	DirectionUnchanged Direction = "unchanged"
)

// MetricTrend compares one metric across the two latest records.
// PercentChange is nil when the previous value is zero.
// Blood pressure compares the systolic component only.
type MetricTrend struct {
	Metric        Metric    `json:"metric"`
	Current       float64   `json:"current"`
	Previous      float64   `json:"previous"`
	PercentChange *float64  `json:"percent_change"`
	Direction     Direction `json:"direction"`
	Category      *Category `json:"category,omitempty"`
	Abnormal      bool      `json:"abnormal"`
}

// TrendReport is the comparison of a user's two most recent records.
type TrendReport struct {
	LatestID   string        `json:"latest_id"`
	PreviousID string        `json:"previous_id"`
	Metrics    []MetricTrend `json:"metrics"`
}

// Trend compares records[0] (latest) against records[1]. Records must be
// ordered newest first; fewer than two records yields nil.
func Trend(records []entity.HealthRecord, s Subject) *TrendReport {
	if len(records) < 2 {
		return nil
	}
	latest, previous := records[0], records[1]

	prev := make(map[Metric]Reading)
	for _, mr := range readings(previous) {
		prev[mr.metric] = mr.reading
	}

	report := &TrendReport{LatestID: latest.ID, PreviousID: previous.ID}
	for _, mr := range readings(latest) {
		p, ok := prev[mr.metric]
		if !ok {
			continue
		}
		mt := MetricTrend{
			Metric:    mr.metric,
			Current:   mr.reading.Value,
			Previous:  p.Value,
			Direction: direction(mr.reading.Value, p.Value),
		}
		// zero previous leaves PercentChange nil
		if pc, err := PercentChange(mr.reading.Value, p.Value); err == nil {
			mt.PercentChange = &pc
		}
		if Classifiable(mr.metric) {
			c := mustClassify(mr.metric, mr.reading, s)
			mt.Category = &c
			mt.Abnormal = c.Tier.Abnormal()
		}
		report.Metrics = append(report.Metrics, mt)
	}
	return report
}

func direction(cur, prev float64) Direction {
	switch {
	case cur > prev:
		return DirectionIncrease
	case cur < prev:
		return DirectionDecrease
	default:
		return DirectionUnchanged
	}
}
