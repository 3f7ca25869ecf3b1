package health

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for dates of birth and record days.
const DateLayout = "2006-01-02"

// ParseBirthDate parses a YYYY-MM-DD date. Blank input is ErrInvalidDate.
func ParseBirthDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: birth date is empty", ErrInvalidDate)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// AgeInYears returns whole years elapsed between birth and asOf, decremented
// when the birthday has not yet occurred in asOf's year.
func AgeInYears(birth, asOf time.Time) (int, error) {
	if birth.IsZero() {
		return 0, fmt.Errorf("%w: birth date is missing", ErrInvalidDate)
	}
	b := Day(birth)
	now := Day(asOf)
	if b.After(now) {
		return 0, fmt.Errorf("%w: birth date %s is in the future", ErrInvalidDate, b.Format(DateLayout))
	}

	years := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		years--
	}
	return years, nil
}

// Day truncates t to midnight of its calendar day in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
