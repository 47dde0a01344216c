package analyzer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Transform - то, что нас интересует в transform: сдвиг и масштаб.
type Transform struct {
	TranslateX float64
	TranslateY float64
	ScaleX     float64
	ScaleY     float64
}

var identity = Transform{ScaleX: 1, ScaleY: 1}

var transformFuncRe = regexp.MustCompile(`([a-z0-9]+)\(([^)]*)\)`)

// ParseComputedTransform разбирает вычисленное значение: none, matrix(a,b,c,d,e,f) или matrix3d(...).
func ParseComputedTransform(value string) (Transform, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "none" {
		return identity, true
	}

	m := transformFuncRe.FindStringSubmatch(value)
	if m == nil {
		return Transform{}, false
	}
	args, ok := parseArgs(m[2])
	if !ok {
		return Transform{}, false
	}

	switch {
	case m[1] == "matrix" && len(args) == 6:
		return Transform{
			ScaleX:     math.Hypot(args[0], args[1]),
			ScaleY:     math.Hypot(args[2], args[3]),
			TranslateX: args[4],
			TranslateY: args[5],
		}, true
	case m[1] == "matrix3d" && len(args) == 16:
		return Transform{
			ScaleX:     math.Hypot(args[0], args[1]),
			ScaleY:     math.Hypot(args[4], args[5]),
			TranslateX: args[12],
			TranslateY: args[13],
		}, true
	}
	return Transform{}, false
}

// ParseDeclaredTransform разбирает запись из таблицы стилей:
// translate/translateX/translateY/translate3d и scale/scaleX/scaleY.
// Остальные функции (rotate, skew) игнорируются.
func ParseDeclaredTransform(value string) (Transform, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "none" {
		return identity, true
	}

	t := identity
	found := false
	for _, m := range transformFuncRe.FindAllStringSubmatch(value, -1) {
		args, ok := parseArgs(m[2])
		if !ok || len(args) == 0 {
			continue
		}
		switch m[1] {
		case "translate", "translate3d":
			t.TranslateX += args[0]
			if len(args) > 1 {
				t.TranslateY += args[1]
			}
		case "translatex":
			t.TranslateX += args[0]
		case "translatey":
			t.TranslateY += args[0]
		case "scale", "scale3d":
			t.ScaleX *= args[0]
			if len(args) > 1 {
				t.ScaleY *= args[1]
			} else {
				t.ScaleY *= args[0]
			}
		case "scalex":
			t.ScaleX *= args[0]
		case "scaley":
			t.ScaleY *= args[0]
		default:
			continue
		}
		found = true
	}
	return t, found
}

func parseArgs(s string) ([]float64, bool) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.TrimSuffix(part, "px")
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}
