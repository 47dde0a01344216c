package analyzer

import (
	"regexp"
	"strconv"
	"strings"
)

var mediaFeatureRe = regexp.MustCompile(`\(\s*(min|max)-width\s*:\s*([\d.]+)\s*(px|em|rem)?\s*\)`)

// MediaApplies - подходит ли media-запрос для окна шириной width.
// Понимает только min-width/max-width; запросы без них считаются применимыми.
// Списки через запятую - это "или".
func MediaApplies(query string, width int) bool {
	query = strings.ToLower(query)
	if strings.Contains(query, "print") && !strings.Contains(query, "screen") {
		return false
	}

	for _, part := range strings.Split(query, ",") {
		if mediaPartApplies(part, float64(width)) {
			return true
		}
	}
	return false
}

func mediaPartApplies(part string, width float64) bool {
	for _, m := range mediaFeatureRe.FindAllStringSubmatch(part, -1) {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return false
		}
		if m[3] == "em" || m[3] == "rem" {
			v *= 16
		}
		switch m[1] {
		case "min":
			if width < v {
				return false
			}
		case "max":
			if width > v {
				return false
			}
		}
	}
	return true
}
