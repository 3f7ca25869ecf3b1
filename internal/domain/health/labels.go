package health

type metricInfo struct {
	label string
	unit  string
}

var metricInfos = map[Metric]metricInfo{
	MetricBMI:           {"BMI", ""},
	MetricBloodPressure: {"Blood Pressure", "mmHg"},
	MetricBloodSugar:    {"Blood Sugar", "mg/dL"},
	MetricHeartRate:     {"Heart Rate", "bpm"},
	MetricCholesterol:   {"Cholesterol", "mg/dL"},
	MetricHemoglobin:    {"Hemoglobin", "g/dL"},
	MetricRBC:           {"RBC Count", "million/µL"},
	MetricWBC:           {"WBC Count", "/µL"},
	MetricPlatelet:      {"Platelet Count", "/µL"},
	MetricWeight:        {"Weight", "kg"},
	MetricHeight:        {"Height", "cm"},
}

// Label is the human readable metric name.
func (m Metric) Label() string {
	if i, ok := metricInfos[m]; ok {
		return i.label
	}
	return string(m)
}

func (m Metric) Unit() string {
	return metricInfos[m].unit
}
