package validation

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Number accepts either a JSON number or a numeric string such as "72.5".
// Anything else fails decoding with a *json.UnmarshalTypeError.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	raw := s
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return &json.UnmarshalTypeError{Value: "string", Type: reflect.TypeOf(*n)}
		}
		raw = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return &json.UnmarshalTypeError{Value: s, Type: reflect.TypeOf(*n)}
	}
	*n = Number(v)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

// OptFloat converts an optional Number.
func OptFloat(n *Number) *float64 {
	if n == nil {
		return nil
	}
	v := float64(*n)
	return &v
}
