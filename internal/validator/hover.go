package validator

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/kitbuilder587/webarch-grader/internal/analyzer"
	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/render"
)

// Hover проверяется по двум источникам: отрисованное состояние после наведения
// и правило selector:hover в таблице стилей. Каждая ожидаемая составляющая
// засчитывается, если её подтвердил хотя бы один источник.

var hoverProps = []string{"transform", "background-color", "color", "box-shadow"}

// hoverMismatch возвращает имя первой неподтверждённой составляющей или "".
func (c *call) hoverMismatch(ctx context.Context, s render.Session, sheet *analyzer.Stylesheet, rule domain.HoverRule) (string, error) {
	rendered, err := c.renderedHover(ctx, s, rule)
	if err != nil {
		return "", err
	}

	static := map[string]bool{}
	if sheet != nil && !c.engine.config.DisableStaticHoverOracle {
		static = staticHover(sheet, rule)
	}

	for _, fact := range hoverFacts(rule) {
		if !rendered[fact] && !static[fact] {
			return fact, nil
		}
	}
	return "", nil
}

func hoverFacts(rule domain.HoverRule) []string {
	var facts []string
	if rule.TranslateY != nil {
		facts = append(facts, "translate-y")
	}
	if rule.Scale != nil {
		facts = append(facts, "scale")
	}
	if rule.BackgroundColor != "" {
		facts = append(facts, "background-color")
	}
	if rule.Color != "" {
		facts = append(facts, "color")
	}
	return facts
}

func (c *call) renderedHover(ctx context.Context, s render.Session, rule domain.HoverRule) (map[string]bool, error) {
	if err := s.Hover(ctx, rule.Selector); err != nil {
		if errors.Is(err, render.ErrElementNotFound) {
			return nil, err
		}
		// без наведения остаётся только статический источник
		c.engine.logger.Debug("hover dispatch failed", zap.String("selector", rule.Selector), zap.Error(err))
		return map[string]bool{}, nil
	}

	st, err := s.ComputedStyle(ctx, rule.Selector, hoverProps...)
	if err != nil {
		return nil, err
	}
	t, ok := analyzer.ParseComputedTransform(st["transform"])
	return matchHover(rule, t, ok, st["background-color"], st["color"]), nil
}

func staticHover(sheet *analyzer.Stylesheet, rule domain.HoverRule) map[string]bool {
	var t analyzer.Transform
	tOK := false
	if v, ok := sheet.HoverDeclared(rule.Selector, "transform"); ok {
		t, tOK = analyzer.ParseDeclaredTransform(v)
	}

	bg, ok := sheet.HoverDeclared(rule.Selector, "background-color")
	if !ok {
		if v, ok := sheet.HoverDeclared(rule.Selector, "background"); ok {
			bg = colorToken(v)
		}
	}
	color, _ := sheet.HoverDeclared(rule.Selector, "color")

	return matchHover(rule, t, tOK, bg, color)
}

func matchHover(rule domain.HoverRule, t analyzer.Transform, tOK bool, bg, color string) map[string]bool {
	tol := rule.Tolerance
	if tol == 0 {
		tol = 1
	}
	scaleTol := rule.ScaleTolerance
	if scaleTol == 0 {
		scaleTol = 0.01
	}

	got := map[string]bool{}
	if rule.TranslateY != nil {
		got["translate-y"] = tOK && analyzer.Within(t.TranslateY, *rule.TranslateY, tol)
	}
	if rule.Scale != nil {
		got["scale"] = tOK && analyzer.Within(t.ScaleX, *rule.Scale, scaleTol) && analyzer.Within(t.ScaleY, *rule.Scale, scaleTol)
	}
	if rule.BackgroundColor != "" {
		got["background-color"] = bg != "" && analyzer.ColorsEqual(bg, rule.BackgroundColor)
	}
	if rule.Color != "" {
		got["color"] = color != "" && analyzer.ColorsEqual(color, rule.Color)
	}
	return got
}

// colorToken достаёт цвет из сокращённой записи background.
func colorToken(value string) string {
	depth := 0
	start := 0
	for i, r := range value + " " {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ' ' && depth == 0:
			tok := strings.TrimSpace(value[start:i])
			start = i + 1
			if _, ok := analyzer.ParseColor(tok); ok {
				return tok
			}
		}
	}
	return ""
}

// hoverEffect - есть ли у элемента хоть какой-то эффект наведения.
func (c *call) hoverEffect(ctx context.Context, s render.Session, sheet *analyzer.Stylesheet, selector string) (bool, error) {
	if sheet != nil && !c.engine.config.DisableStaticHoverOracle {
		for _, p := range hoverProps {
			if _, ok := sheet.HoverDeclared(selector, p); ok {
				return true, nil
			}
		}
	}

	before, err := s.ComputedStyle(ctx, selector, hoverProps...)
	if err != nil {
		return false, err
	}
	if err := s.Hover(ctx, selector); err != nil {
		if errors.Is(err, render.ErrElementNotFound) {
			return false, err
		}
		c.engine.logger.Debug("hover dispatch failed", zap.String("selector", selector), zap.Error(err))
		return false, nil
	}
	after, err := s.ComputedStyle(ctx, selector, hoverProps...)
	if err != nil {
		return false, err
	}
	for _, p := range hoverProps {
		if before[p] != after[p] {
			return true, nil
		}
	}
	return false, nil
}
