package analyzer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBA - цвет в 8-битных каналах, альфа от 0 до 1.
type RGBA struct {
	R, G, B uint8
	A       float64
}

var rgbFuncRe = regexp.MustCompile(`^rgba?\(\s*([\d.]+%?)\s*[,\s]\s*([\d.]+%?)\s*[,\s]\s*([\d.]+%?)\s*(?:[,/]\s*([\d.]+%?)\s*)?\)$`)

// базовые именованные цвета CSS, которых хватает учебным упражнениям
var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"maroon":  "#800000",
	"navy":    "#000080",
	"teal":    "#008080",
	"olive":   "#808000",
	"lime":    "#00ff00",
	"aqua":    "#00ffff",
	"cyan":    "#00ffff",
	"fuchsia": "#ff00ff",
	"magenta": "#ff00ff",
	"pink":    "#ffc0cb",
}

// ParseColor понимает #rgb, #rrggbb (и варианты с альфой), rgb()/rgba(), transparent и имена.
func ParseColor(s string) (RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "transparent" {
		return RGBA{A: 0}, true
	}
	if hex, ok := namedColors[s]; ok {
		s = hex
	}

	if strings.HasPrefix(s, "#") {
		return parseHex(s)
	}

	m := rgbFuncRe.FindStringSubmatch(s)
	if m == nil {
		return RGBA{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, ok := parseChannel(m[i+1])
		if !ok {
			return RGBA{}, false
		}
		ch[i] = v
	}
	alpha := 1.0
	if m[4] != "" {
		a, ok := parseAlpha(m[4])
		if !ok {
			return RGBA{}, false
		}
		alpha = a
	}
	return RGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, true
}

func parseHex(s string) (RGBA, bool) {
	alpha := 1.0
	switch len(s) {
	case 5, 9:
		// #rgba / #rrggbbaa
		n := (len(s) - 1) / 4
		raw := s[len(s)-n:]
		if n == 1 {
			raw += raw
		}
		a, err := strconv.ParseUint(raw, 16, 8)
		if err != nil {
			return RGBA{}, false
		}
		alpha = float64(a) / 255
		s = s[:len(s)-n]
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return RGBA{}, false
	}
	r, g, b := c.RGB255()
	return RGBA{R: r, G: g, B: b, A: alpha}, true
}

func parseChannel(v string) (uint8, bool) {
	pct := strings.HasSuffix(v, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
	if err != nil {
		return 0, false
	}
	if pct {
		f = f * 255 / 100
	}
	return uint8(math.Round(math.Max(0, math.Min(255, f)))), true
}

func parseAlpha(v string) (float64, bool) {
	pct := strings.HasSuffix(v, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
	if err != nil {
		return 0, false
	}
	if pct {
		f /= 100
	}
	return math.Max(0, math.Min(1, f)), true
}

func (c RGBA) Equal(o RGBA) bool {
	return c.R == o.R && c.G == o.G && c.B == o.B && math.Abs(c.A-o.A) < 0.01
}

// ColorsEqual сравнивает цвета в любой записи: "#ccc", "#cccccc" и "rgb(204, 204, 204)" равны.
// Нераспознанные значения сравниваются как строки.
func ColorsEqual(a, b string) bool {
	ca, okA := ParseColor(a)
	cb, okB := ParseColor(b)
	if !okA || !okB {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return ca.Equal(cb)
}

// IsPureBlackOrWhite - непрозрачный чистый чёрный или белый.
func IsPureBlackOrWhite(s string) bool {
	c, ok := ParseColor(s)
	if !ok || c.A < 0.99 {
		return false
	}
	return (c.R == 0 && c.G == 0 && c.B == 0) || (c.R == 255 && c.G == 255 && c.B == 255)
}
