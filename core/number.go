package core

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// ParseAmount converts loosely typed input (form text, JSON numbers, numeric
// strings) to a non-negative whole number. Anything else, including negative
// values and anything from 2^63 up, becomes 0. Fractions are truncated.
func ParseAmount(v any) int64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt64 {
		return 0
	}
	return int64(math.Trunc(f))
}
