package internal

import "strconv"

// Scalar lists the types typed parameter helpers convert to.
type Scalar interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// Param returns a typed URL parameter, or the zero value if it cannot be parsed.
func Param[T Scalar](c Context, name string) T {
	v, _ := convertParam[T](c.Param(name))
	return v
}

// Query returns a typed query parameter, or the zero value if it cannot be parsed.
func Query[T Scalar](c Context, name string) T {
	v, _ := convertParam[T](c.Query(name))
	return v
}

// QueryDefault retrieves a typed query parameter with a default value.
// Returns defaultValue if the parameter is empty or cannot be parsed.
func QueryDefault[T Scalar](c Context, name string, defaultValue T) T {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	v, ok := convertParam[T](raw)
	if !ok {
		return defaultValue
	}
	return v
}

func convertParam[T Scalar](raw string) (T, bool) {
	var zero T
	var (
		v   any
		err error
	)
	switch any(zero).(type) {
	case string:
		v = raw
	case int:
		v, err = strconv.Atoi(raw)
	case int64:
		v, err = strconv.ParseInt(raw, 10, 64)
	case float64:
		v, err = strconv.ParseFloat(raw, 64)
	case bool:
		v, err = strconv.ParseBool(raw)
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}
	return v.(T), true
}
