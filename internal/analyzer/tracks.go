package analyzer

import (
	"strconv"
	"strings"
	"unicode"
)

// CountTracks считает колонки в значении grid-template-columns по токенам,
// а не по буквальной строке: "1fr 1fr 1fr" и "33.333% 33.333% 33.333%" дают 3.
// Имена линий в [] пропускаются, repeat(n, ...) разворачивается.
// repeat(auto-fill|auto-fit, ...) считается как один проход шаблона.
func CountTracks(value string) int {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "none" {
		return 0
	}

	n := 0
	for _, tok := range splitTopLevel(value) {
		switch {
		case strings.HasPrefix(tok, "["):
			continue
		case strings.HasPrefix(tok, "repeat(") && strings.HasSuffix(tok, ")"):
			inner := tok[len("repeat(") : len(tok)-1]
			i := strings.IndexByte(inner, ',')
			if i < 0 {
				n++
				continue
			}
			times, err := strconv.Atoi(strings.TrimSpace(inner[:i]))
			if err != nil || times < 1 {
				times = 1
			}
			n += times * CountTracks(inner[i+1:])
		default:
			n++
		}
	}
	return n
}

// splitTopLevel режет по пробелам вне скобок.
func splitTopLevel(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for _, r := range s {
		switch {
		case r == '(' || r == '[':
			depth++
			cur.WriteRune(r)
		case r == ')' || r == ']':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case unicode.IsSpace(r) && depth == 0:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
