package health

import (
	"fmt"
	"time"
)

// Tier is the ordered risk level behind a category label.
type Tier int

const (
	TierNormal Tier = iota
	TierLow
	TierElevated
	TierStage1
	TierHigh
)

var tierNames = map[Tier]string{
	TierNormal:   "normal",
	TierLow:      "low",
	TierElevated: "elevated",
	TierStage1:   "stage1",
	TierHigh:     "high",
}

var tierColors = map[Tier]string{
	TierNormal:   "#4CAF50",
	TierLow:      "#FFC107",
	TierElevated: "#FF9800",
	TierStage1:   "#FF5722",
	TierHigh:     "#F44336",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Color is the display color used by the UI and reports for this tier.
func (t Tier) Color() string {
	if c, ok := tierColors[t]; ok {
		return c
	}
	return "#9E9E9E"
}

// Abnormal reports whether a tier is anything other than normal.
func (t Tier) Abnormal() bool { return t != TierNormal }

// Category is the result of classifying a single metric value.
type Category struct {
	Label string `json:"label"`
	Tier  Tier   `json:"tier"`
	Color string `json:"color"`
}

func category(label string, tier Tier) Category {
	return Category{Label: label, Tier: tier, Color: tier.Color()}
}

var (
	catLow         = category("Low", TierLow)
	catNormal      = category("Normal", TierNormal)
	catElevated    = category("Elevated", TierElevated)
	catHigh        = category("High", TierHigh)
	catStage1      = category("Stage 1", TierStage1)
	catStage2      = category("Stage 2", TierHigh)
	catUnderweight = category("Underweight", TierLow)
	catOverweight  = category("Overweight", TierElevated)
	catObese       = category("Obese", TierHigh)
	catPreDiabetes = category("Pre-Diabetes", TierElevated)
	catBorderline  = category("Borderline", TierElevated)
)

// Bracket is the age range that governs which thresholds apply.
type Bracket int

const (
	BracketChild   Bracket = iota // under 13
	BracketTeen                   // 13-19
	BracketAdult                  // 20-59
	BracketElderly                // 60 and over
)

// BracketFor maps an age in years to its bracket.
func BracketFor(age int) Bracket {
	switch {
	case age < 13:
		return BracketChild
	case age < 20:
		return BracketTeen
	case age < 60:
		return BracketAdult
	default:
		return BracketElderly
	}
}

// Gender as stored on the user profile.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Subject carries the per-person context classifiers need. Build it once per
// user and reuse it for every metric.
type Subject struct {
	Bracket Bracket
	Gender  Gender
	Age     *int
}

// SubjectOf builds a Subject from a known age.
func SubjectOf(age int, gender Gender) Subject {
	a := age
	return Subject{Bracket: BracketFor(age), Gender: gender, Age: &a}
}

// SubjectFor derives the subject at asOf. A missing or invalid birth date
// falls back to the adult bracket.
func SubjectFor(birth *time.Time, gender Gender, asOf time.Time) Subject {
	if birth == nil {
		return Subject{Bracket: BracketAdult, Gender: gender}
	}
	age, err := AgeInYears(*birth, asOf)
	if err != nil {
		return Subject{Bracket: BracketAdult, Gender: gender}
	}
	return SubjectOf(age, gender)
}

// Metric names a classifiable (or trackable) measurement.
type Metric string

const (
	MetricBMI           Metric = "bmi"
	MetricBloodPressure Metric = "blood_pressure"
	MetricBloodSugar    Metric = "blood_sugar"
	MetricHeartRate     Metric = "heart_rate"
	MetricCholesterol   Metric = "cholesterol"
	MetricHemoglobin    Metric = "hemoglobin"
	MetricRBC           Metric = "rbc_count"
	MetricWBC           Metric = "wbc_count"
	MetricPlatelet      Metric = "platelet_count"
	MetricWeight        Metric = "weight"
	MetricHeight        Metric = "height"
)

// Reading is a metric value. Secondary holds the diastolic component of a
// blood-pressure pair and is ignored elsewhere.
type Reading struct {
	Value     float64
	Secondary float64
}

type rule struct {
	match func(r Reading) bool
	cat   Category
}

// below matches Value < x.
func below(x float64, c Category) rule {
	return rule{match: func(r Reading) bool { return r.Value < x }, cat: c}
}

// atMost matches Value <= x.
func atMost(x float64, c Category) rule {
	return rule{match: func(r Reading) bool { return r.Value <= x }, cat: c}
}

func otherwise(c Category) rule {
	return rule{match: func(Reading) bool { return true }, cat: c}
}

func either(s, d float64, c Category) rule {
	return rule{match: func(r Reading) bool { return r.Value < s || r.Secondary < d }, cat: c}
}

func both(s, d float64, c Category) rule {
	return rule{match: func(r Reading) bool { return r.Value < s && r.Secondary < d }, cat: c}
}

// table picks the ordered rule list for a subject.
type table func(s Subject) []rule

// byAge selects rules for the under-20, 20-59 and 60+ brackets.
func byAge(young, adult, elderly []rule) table {
	return func(s Subject) []rule {
		switch s.Bracket {
		case BracketChild, BracketTeen:
			return young
		case BracketAdult:
			return adult
		default:
			return elderly
		}
	}
}

func byGender(male, other []rule) table {
	return func(s Subject) []rule {
		if s.Gender == GenderMale {
			return male
		}
		return other
	}
}

func fixed(rules []rule) table {
	return func(Subject) []rule { return rules }
}

var tables = map[Metric]table{
	// Under-20 thresholds are the source's simplified percentile scale.
	MetricBMI: byAge(
		[]rule{below(5, catUnderweight), below(85, catNormal), below(95, catOverweight), otherwise(catObese)},
		[]rule{below(18.5, catUnderweight), below(25, catNormal), below(30, catOverweight), otherwise(catObese)},
		[]rule{below(18.5, catUnderweight), below(25, catNormal), below(30, catOverweight), otherwise(catObese)},
	),
	MetricBloodPressure: byAge(
		[]rule{either(90, 50, catLow), both(120, 80, catNormal), both(130, 80, catElevated), otherwise(catHigh)},
		[]rule{either(90, 60, catLow), both(120, 80, catNormal), both(130, 80, catElevated), either(140, 90, catStage1), otherwise(catStage2)},
		[]rule{either(110, 70, catLow), both(130, 80, catNormal), both(140, 90, catElevated), either(150, 90, catStage1), otherwise(catStage2)},
	),
	MetricBloodSugar: byAge(
		[]rule{below(70, catLow), below(100, catNormal), below(120, catPreDiabetes), otherwise(catHigh)},
		[]rule{below(70, catLow), below(100, catNormal), below(126, catPreDiabetes), otherwise(catHigh)},
		[]rule{below(80, catLow), below(110, catNormal), below(130, catPreDiabetes), otherwise(catHigh)},
	),
	MetricHeartRate: func(s Subject) []rule {
		switch s.Bracket {
		case BracketChild:
			return []rule{below(70, catLow), atMost(120, catNormal), otherwise(catHigh)}
		case BracketTeen:
			return []rule{below(60, catLow), atMost(100, catNormal), otherwise(catHigh)}
		case BracketAdult:
			return []rule{below(60, catLow), atMost(90, catNormal), atMost(100, catElevated), otherwise(catHigh)}
		default:
			return []rule{below(50, catLow), atMost(80, catNormal), atMost(90, catElevated), otherwise(catHigh)}
		}
	},
	MetricCholesterol: byAge(
		[]rule{below(120, catLow), below(170, catNormal), below(200, catBorderline), otherwise(catHigh)},
		[]rule{below(150, catLow), below(200, catNormal), below(240, catBorderline), otherwise(catHigh)},
		[]rule{below(160, catLow), below(210, catNormal), below(250, catBorderline), otherwise(catHigh)},
	),
	MetricHemoglobin: byGender(
		[]rule{below(13.5, catLow), atMost(17.5, catNormal), otherwise(catHigh)},
		[]rule{below(12.0, catLow), atMost(15.5, catNormal), otherwise(catHigh)},
	),
	MetricRBC: byGender(
		[]rule{below(4.5, catLow), atMost(5.9, catNormal), otherwise(catHigh)},
		[]rule{below(4.0, catLow), atMost(5.2, catNormal), otherwise(catHigh)},
	),
	MetricWBC:      fixed([]rule{below(4000, catLow), atMost(11000, catNormal), otherwise(catHigh)}),
	MetricPlatelet: fixed([]rule{below(150000, catLow), atMost(450000, catNormal), otherwise(catHigh)}),
}

// Classifiable reports whether m has a classification table.
func Classifiable(m Metric) bool {
	_, ok := tables[m]
	return ok
}

// Classify maps a reading to its category for the given subject. Values are
// not checked for physiological plausibility; every number gets a label.
func Classify(m Metric, r Reading, s Subject) (Category, error) {
	t, ok := tables[m]
	if !ok {
		return Category{}, fmt.Errorf("%w: %s", ErrUnknownMetric, m)
	}
	for _, ru := range t(s) {
		if ru.match(r) {
			return ru.cat, nil
		}
	}
	// every table ends with otherwise()
	return Category{}, fmt.Errorf("%w: no band for %s", ErrUnknownMetric, m)
}

// mustClassify is Classify for metrics known to have rules; it panics otherwise.
func mustClassify(m Metric, r Reading, s Subject) Category {
	c, err := Classify(m, r, s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClassifyBMI grades a body mass index. Under 20 the value is read as a percentile.
func ClassifyBMI(bmi float64, s Subject) Category {
	return mustClassify(MetricBMI, Reading{Value: bmi}, s)
}

// ClassifyBloodPressure grades a systolic/diastolic pair in mmHg.
func ClassifyBloodPressure(systolic, diastolic float64, s Subject) Category {
	return mustClassify(MetricBloodPressure, Reading{Value: systolic, Secondary: diastolic}, s)
}

// ClassifyBloodSugar grades a glucose reading in mg/dL.
func ClassifyBloodSugar(v float64, s Subject) Category {
	return mustClassify(MetricBloodSugar, Reading{Value: v}, s)
}

// ClassifyHeartRate grades a resting pulse in beats per minute.
func ClassifyHeartRate(v float64, s Subject) Category {
	return mustClassify(MetricHeartRate, Reading{Value: v}, s)
}

// ClassifyCholesterol grades total cholesterol in mg/dL.
func ClassifyCholesterol(v float64, s Subject) Category {
	return mustClassify(MetricCholesterol, Reading{Value: v}, s)
}

// ClassifyHemoglobin grades hemoglobin in g/dL against gender-specific ranges.
func ClassifyHemoglobin(v float64, s Subject) Category {
	return mustClassify(MetricHemoglobin, Reading{Value: v}, s)
}

// ClassifyRBC grades a red blood cell count in millions per microliter.
func ClassifyRBC(v float64, s Subject) Category {
	return mustClassify(MetricRBC, Reading{Value: v}, s)
}

// ClassifyWBC grades a white blood cell count per microliter.
func ClassifyWBC(v float64, s Subject) Category {
	return mustClassify(MetricWBC, Reading{Value: v}, s)
}

// ClassifyPlatelet grades a platelet count per microliter.
func ClassifyPlatelet(v float64, s Subject) Category {
	return mustClassify(MetricPlatelet, Reading{Value: v}, s)
}
