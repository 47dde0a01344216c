package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kitbuilder587/webarch-grader/internal/analyzer"
	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/render"
)

var sides = []string{"top", "right", "bottom", "left"}

// checkSelectorRules - статическая накопительная проверка: штраф за каждое правило,
// отсутствующий селектор и неверное значение - разные классы нарушений.
func checkSelectorRules(ctx context.Context, c *call) domain.ValidationResult {
	sheet, bad := c.stylesheet()
	if bad != nil {
		return *bad
	}

	rules := c.rubric.Selectors
	card := newScorecard(c.rubric.PassScore, c.rubric.DeductionFor(len(rules)))
	for _, r := range rules {
		name := "selector " + r.Selector
		if !sheet.HasSelector(r.Selector) {
			card.fail(name, domain.ErrorSelectorMissing, "selector %s is missing%s", r.Selector, hint(r.Hint))
			continue
		}
		if r.Property == "" {
			continue
		}
		got, ok := sheet.Declared(r.Selector, r.Property)
		if !ok {
			card.fail(name, domain.ErrorDeclarationMismatch, "%s should set %s: %s%s", r.Selector, r.Property, r.Value, hint(r.Hint))
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(r.Value)) {
			card.fail(name, domain.ErrorDeclarationMismatch, "%s %s should be %s, found %s%s", r.Selector, r.Property, r.Value, got, hint(r.Hint))
		}
	}
	return card.result(c.passMessage("all selector rules are correct"))
}

func hint(h string) string {
	if h == "" {
		return ""
	}
	return " (" + h + ")"
}

// checkBoxModel сверяет вычисленную блочную модель. Допуск по пикселям из рубрики,
// цвета сравниваются в любой записи. Подсказка про контейнер баллы не снимает.
func checkBoxModel(ctx context.Context, c *call) domain.ValidationResult {
	want := c.rubric.BoxModel
	tol := want.Tolerance

	return c.withSession(ctx, func(s render.Session) domain.ValidationResult {
		props := []string{"box-sizing", "margin-right", "margin-bottom"}
		for _, side := range sides {
			props = append(props,
				"padding-"+side,
				"border-"+side+"-width",
				"border-"+side+"-style",
				"border-"+side+"-color",
			)
		}

		st, err := s.ComputedStyle(ctx, want.Target, props...)
		if errors.Is(err, render.ErrElementNotFound) {
			return domain.Failed(domain.ErrorElementMissing, fmt.Sprintf("element %s not found", want.Target))
		}
		if err != nil {
			return c.fault(err)
		}
		box, err := s.Box(ctx, want.Target)
		if err != nil {
			return c.fault(err)
		}

		card := newScorecard(c.rubric.PassScore, c.rubric.DeductionFor(5))

		if !strings.EqualFold(st["box-sizing"], want.BoxSizing) {
			card.fail("box-sizing", domain.ErrorBoxModel, "box-sizing should be %s, found %s", want.BoxSizing, st["box-sizing"])
		}

		if side, ok := allSides(st, "padding-%s", func(v string) bool { return analyzer.PxWithin(v, want.Padding, tol) }); !ok {
			card.fail("padding", domain.ErrorBoxModel, "padding-%s should be %gpx, found %s", side, want.Padding, st["padding-"+side])
		}

		borderOK := true
		for _, side := range sides {
			if !analyzer.PxWithin(st["border-"+side+"-width"], want.BorderWidth, tol) ||
				!strings.EqualFold(st["border-"+side+"-style"], want.BorderStyle) ||
				!analyzer.ColorsEqual(st["border-"+side+"-color"], want.BorderColor) {
				borderOK = false
				break
			}
		}
		if !borderOK {
			card.fail("border", domain.ErrorBoxModel, "border should be %gpx %s %s on every side", want.BorderWidth, want.BorderStyle, want.BorderColor)
		}

		if !analyzer.PxWithin(st["margin-right"], want.MarginRight, tol) || !analyzer.PxWithin(st["margin-bottom"], want.MarginBottom, tol) {
			card.fail("margin", domain.ErrorBoxModel, "margin-right should be %gpx and margin-bottom %gpx, found %s and %s",
				want.MarginRight, want.MarginBottom, st["margin-right"], st["margin-bottom"])
		}

		if !analyzer.Within(box.Width, want.Width, tol) {
			card.fail("width", domain.ErrorBoxModel, "rendered width should be %gpx, found %gpx", want.Width, box.Width)
		}

		if tip := want.Tip; tip != nil {
			got, err := s.ComputedStyle(ctx, tip.Selector, tip.Property)
			if err == nil && !strings.EqualFold(got[tip.Property], tip.Value) {
				card.tip("container", "set %s: %s on %s%s", tip.Property, tip.Value, tip.Selector, hint(tip.Hint))
			}
			if errors.Is(err, render.ErrElementNotFound) {
				card.tip("container", "wrap the boxes in %s with %s: %s", tip.Selector, tip.Property, tip.Value)
			}
		}

		return card.result(c.passMessage("box model is correct"))
	})
}

// allSides проверяет свойство для всех четырёх сторон, возвращает первую неподходящую.
func allSides(st map[string]string, pattern string, ok func(string) bool) (string, bool) {
	for _, side := range sides {
		if !ok(st[fmt.Sprintf(pattern, side)]) {
			return side, false
		}
	}
	return "", true
}

// checkDragMatch сравнивает пары цель->элемент из JSON-ответа с рубрикой.
func checkDragMatch(ctx context.Context, c *call) domain.ValidationResult {
	want := c.rubric.Drag

	answer := map[string]any{}
	if text := strings.TrimSpace(c.req.Style); text != "" {
		if err := json.Unmarshal([]byte(text), &answer); err != nil {
			return domain.Failed(domain.ErrorMatchPayload, "answer must be a JSON object mapping targets to items")
		}
	}

	total := want.Total
	if total == 0 {
		total = c.rubric.PassScore
	}
	card := newScorecard(total, want.Penalty)
	for _, p := range want.Pairs {
		got, _ := answer[p.Target].(string)
		if got != p.Item {
			card.fail("pair "+p.Target, domain.ErrorMatchWrong, "%s should match %s (you selected %q)", p.Target, p.Item, got)
		}
	}
	return card.result(c.passMessage("all pairs matched"))
}

var typographyProps = []string{"text-align", "color", "font-size", "line-height", "text-decoration-line"}

// checkTypography: каждое значение принимается либо из отрисованного стиля,
// либо из объявления в таблице стилей (например line-height: 1.6 и 25.6px).
func checkTypography(ctx context.Context, c *call) domain.ValidationResult {
	want := c.rubric.Typography
	sheet, bad := c.stylesheet()
	if bad != nil {
		return *bad
	}

	checks := 0
	for _, t := range want.Targets {
		checks += len(typographyChecks(t))
	}

	return c.withSession(ctx, func(s render.Session) domain.ValidationResult {
		if want.Scope != "" {
			n, err := s.Count(ctx, want.Scope)
			if err != nil {
				return c.fault(err)
			}
			if n == 0 {
				return domain.Failed(domain.ErrorElementMissing, fmt.Sprintf("element %s not found", want.Scope))
			}
		}

		card := newScorecard(c.rubric.PassScore, c.rubric.DeductionFor(checks))
		for _, t := range want.Targets {
			st, err := s.ComputedStyle(ctx, t.Selector, typographyProps...)
			if errors.Is(err, render.ErrElementNotFound) {
				for _, name := range typographyChecks(t) {
					card.fail(t.Selector+" "+name, domain.ErrorElementMissing, "element %s not found", t.Selector)
				}
				continue
			}
			if err != nil {
				return c.fault(err)
			}

			if problems := textStyleProblems(t, st, sheet); len(problems) > 0 {
				card.fail(t.Selector+" text", domain.ErrorTypography, "%s: %s", t.Selector, strings.Join(problems, ", "))
			}
			if t.LineHeight > 0 && !lineHeightOK(t, st, sheet) {
				card.fail(t.Selector+" line-height", domain.ErrorTypography, "%s line-height should be %g", t.Selector, t.LineHeight)
			}
			if t.HoverColor != "" {
				missing, err := c.hoverMismatch(ctx, s, sheet, domain.HoverRule{Selector: t.Selector, Color: t.HoverColor})
				if err != nil {
					return c.fault(err)
				}
				if missing != "" {
					card.fail(t.Selector+" hover", domain.ErrorTypography, "%s:hover color should be %s", t.Selector, t.HoverColor)
				}
			}
		}
		return card.result(c.passMessage("typography is correct"))
	})
}

// typographyChecks - атомарные проверки одной цели, каждая со своим штрафом.
func typographyChecks(t domain.TextStyleRule) []string {
	var out []string
	if t.TextAlign != "" || t.Color != "" || t.FontSize > 0 || t.TextDecoration != "" {
		out = append(out, "text")
	}
	if t.LineHeight > 0 {
		out = append(out, "line-height")
	}
	if t.HoverColor != "" {
		out = append(out, "hover")
	}
	return out
}

func textStyleProblems(t domain.TextStyleRule, st map[string]string, sheet *analyzer.Stylesheet) []string {
	tol := t.Tolerance
	if tol == 0 {
		tol = 1
	}
	declared := func(prop string) string {
		v, _ := sheet.Declared(t.Selector, prop)
		return v
	}

	var problems []string
	if t.TextAlign != "" && !strings.EqualFold(st["text-align"], t.TextAlign) && !strings.EqualFold(declared("text-align"), t.TextAlign) {
		problems = append(problems, "text-align should be "+t.TextAlign)
	}
	if t.Color != "" && !analyzer.ColorsEqual(st["color"], t.Color) {
		if v := declared("color"); v == "" || !analyzer.ColorsEqual(v, t.Color) {
			problems = append(problems, "color should be "+t.Color)
		}
	}
	if t.FontSize > 0 && !analyzer.PxWithin(st["font-size"], t.FontSize, tol) && !analyzer.PxWithin(declared("font-size"), t.FontSize, tol) {
		problems = append(problems, fmt.Sprintf("font-size should be %gpx", t.FontSize))
	}
	if t.TextDecoration != "" && !strings.EqualFold(st["text-decoration-line"], t.TextDecoration) {
		v := strings.ToLower(declared("text-decoration"))
		if !strings.HasPrefix(v, strings.ToLower(t.TextDecoration)) {
			problems = append(problems, "text-decoration should be "+t.TextDecoration)
		}
	}
	return problems
}

// lineHeightOK: объявленный коэффициент или вычисленные пиксели (коэффициент * font-size).
func lineHeightOK(t domain.TextStyleRule, st map[string]string, sheet *analyzer.Stylesheet) bool {
	if v, ok := sheet.Declared(t.Selector, "line-height"); ok {
		if n, ok := analyzer.ParseNumber(v); ok && analyzer.Within(n, t.LineHeight, 0.01) {
			return true
		}
	}

	fs, ok := analyzer.ParsePx(st["font-size"])
	if !ok {
		return false
	}
	tol := t.Tolerance
	if tol == 0 {
		tol = 1
	}
	return analyzer.PxWithin(st["line-height"], t.LineHeight*fs, tol)
}
