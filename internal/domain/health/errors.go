package health

import "errors"

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMeasurement = errors.New("invalid measurement")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrUnknownMetric      = errors.New("unknown metric")
)
