package analyzer

import (
	"math"
	"strconv"
	"strings"
)

// ParsePx разбирает "15px", "15.5px" и голое число. Другие единицы не поддерживаются.
func ParsePx(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseNumber - безразмерное число, например line-height: 1.6.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func Within(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance+1e-9
}

// PxWithin - значение в px попадает в окно want ± tolerance.
func PxWithin(value string, want, tolerance float64) bool {
	v, ok := ParsePx(value)
	return ok && Within(v, want, tolerance)
}

// MaxDurationSeconds - наибольшая длительность из списка "0.3s, 200ms".
func MaxDurationSeconds(s string) float64 {
	var best float64
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		var (
			v   float64
			err error
		)
		switch {
		case strings.HasSuffix(part, "ms"):
			v, err = strconv.ParseFloat(strings.TrimSuffix(part, "ms"), 64)
			v /= 1000
		case strings.HasSuffix(part, "s"):
			v, err = strconv.ParseFloat(strings.TrimSuffix(part, "s"), 64)
		default:
			continue
		}
		if err == nil && v > best {
			best = v
		}
	}
	return best
}
