package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kitbuilder587/webarch-grader/internal/analyzer"
	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/render"
)

func checkResponsiveLayout(ctx context.Context, c *call) domain.ValidationResult {
	want := c.rubric.Responsive
	sheet := c.lenientSheet()

	return c.withSession(ctx, func(s render.Session) domain.ValidationResult {
		var list map[string]string
		tol := gapTolerance(want.GapTolerance)

		selectors := append([]string{want.Layout, want.List, want.Hover.Selector}, want.Elements...)
		steps := []step{
			requireElements(s, selectors...),
			func(ctx context.Context) (*domain.Finding, error) {
				st, err := s.ComputedStyle(ctx, want.Layout, "display")
				if err != nil {
					return nil, err
				}
				if !isDisplay(st["display"], "grid", "inline-grid") {
					return violation("display", domain.ErrorDisplayInvalid, "%s should use display: grid, found %s", want.Layout, st["display"]), nil
				}
				return nil, nil
			},
		}
		for _, bp := range want.Breakpoints {
			steps = append(steps, columnsStep(c, s, want.Layout, bp))
		}
		steps = append(steps,
			restoreViewport(c, s),
			func(ctx context.Context) (*domain.Finding, error) {
				var err error
				list, err = s.ComputedStyle(ctx, want.List, "display", "flex-wrap", "column-gap")
				if err != nil {
					return nil, err
				}
				if !isDisplay(list["display"], "flex", "inline-flex") {
					return violation("list-display", domain.ErrorDisplayInvalid, "%s should use display: flex, found %s", want.List, list["display"]), nil
				}
				return nil, nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				if want.Wrap == "" || strings.EqualFold(list["flex-wrap"], want.Wrap) {
					return nil, nil
				}
				if sheet != nil {
					if v, ok := sheet.Declared(want.List, "flex-flow"); ok && strings.Contains(strings.ToLower(v), want.Wrap) {
						return nil, nil
					}
				}
				return violation("wrap", domain.ErrorWrapMissing, "%s should set flex-wrap: %s", want.List, want.Wrap), nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				if want.Gap > 0 && !analyzer.PxWithin(list["column-gap"], want.Gap, tol) {
					return violation("gap", domain.ErrorSpacingInvalid, "%s gap should be %gpx, found %s", want.List, want.Gap, list["column-gap"]), nil
				}
				return nil, nil
			},
			hoverStep(c, s, sheet, want.Hover),
		)
		return c.failFast(ctx, steps...)
	})
}

// hoverStep - проверка наведения ставится последней: курсор меняет стили элемента.
func hoverStep(c *call, s render.Session, sheet *analyzer.Stylesheet, rule domain.HoverRule) step {
	return func(ctx context.Context) (*domain.Finding, error) {
		missing, err := c.hoverMismatch(ctx, s, sheet, rule)
		if err != nil {
			return nil, err
		}
		if missing != "" {
			return violation("hover", domain.ErrorHoverMissing, "%s:hover effect is missing or wrong (%s)", rule.Selector, missing), nil
		}
		return nil, nil
	}
}

func checkVisualPolish(ctx context.Context, c *call) domain.ValidationResult {
	want := c.rubric.Polish
	sheet := c.lenientSheet()

	return c.withSession(ctx, func(s render.Session) domain.ValidationResult {
		var st map[string]string
		tol := want.RadiusTolerance
		if tol == 0 {
			tol = 1
		}

		steps := []step{
			requireElements(s, want.Button, want.Animated),
			func(ctx context.Context) (*domain.Finding, error) {
				var err error
				st, err = s.ComputedStyle(ctx, want.Button,
					"border-top-left-radius", "box-shadow", "transition-property", "transition-duration")
				if err != nil {
					return nil, err
				}
				if !analyzer.PxWithin(st["border-top-left-radius"], want.BorderRadius, tol) {
					return violation("border-radius", domain.ErrorDecorationInvalid,
						"%s border-radius should be %gpx, found %s", want.Button, want.BorderRadius, st["border-top-left-radius"]), nil
				}
				return nil, nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				shadow := strings.TrimSpace(st["box-shadow"])
				if want.RequireShadow && (shadow == "" || strings.EqualFold(shadow, "none")) {
					return violation("box-shadow", domain.ErrorDecorationInvalid, "%s should have a box-shadow", want.Button), nil
				}
				return nil, nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				if want.TransitionProperty == "" || hasTransition(st, want.TransitionProperty) {
					return nil, nil
				}
				if sheet != nil {
					if v, ok := sheet.Declared(want.Button, "transition"); ok && declaredTransition(v, want.TransitionProperty) {
						return nil, nil
					}
				}
				return violation("transition", domain.ErrorTransitionMissing,
					"%s should animate %s with a transition", want.Button, want.TransitionProperty), nil
			},
		}
		if want.Animated != "" {
			steps = append(steps, func(ctx context.Context) (*domain.Finding, error) {
				a, err := s.ComputedStyle(ctx, want.Animated, "animation-name", "animation-duration")
				if err != nil {
					return nil, err
				}
				name := strings.TrimSpace(a["animation-name"])
				if name == "" || name == "none" || analyzer.MaxDurationSeconds(a["animation-duration"]) <= 0 {
					return violation("animation", domain.ErrorAnimationMissing, "%s should run a CSS animation", want.Animated), nil
				}
				if want.Keyframes != "" && sheet != nil && !sheet.HasKeyframes(want.Keyframes) {
					return violation("keyframes", domain.ErrorAnimationMissing, "@keyframes %s is not defined", want.Keyframes), nil
				}
				return nil, nil
			})
		}
		steps = append(steps, hoverStep(c, s, sheet, want.Hover))
		return c.failFast(ctx, steps...)
	})
}

// hasTransition: свойство (или all) в transition-property с ненулевой длительностью.
func hasTransition(st map[string]string, prop string) bool {
	if analyzer.MaxDurationSeconds(st["transition-duration"]) <= 0 {
		return false
	}
	for _, p := range strings.Split(st["transition-property"], ",") {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == prop || p == "all" {
			return true
		}
	}
	return false
}

func declaredTransition(value, prop string) bool {
	for _, part := range strings.Split(strings.ToLower(value), ",") {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			continue
		}
		if (fields[0] == prop || fields[0] == "all") && analyzer.MaxDurationSeconds(fields[1]) > 0 {
			return true
		}
	}
	return false
}

// dimension - баллы одного измерения итогового проекта.
type dimension struct {
	name   string
	earned int
	budget int
	notes  []string
}

func (d *dimension) award(points int, ok bool, note string) {
	if ok {
		d.earned += points
		return
	}
	d.notes = append(d.notes, note)
}

func (d dimension) feedback() string {
	head := fmt.Sprintf("%s %d/%d", d.name, d.earned, d.budget)
	if len(d.notes) == 0 {
		return head
	}
	return head + ": " + strings.Join(d.notes, "; ")
}

// styleOf - вычисленные стили; отсутствующий элемент это не сбой, а потерянные баллы.
func styleOf(ctx context.Context, s render.Session, selector string, props ...string) (map[string]string, bool, error) {
	st, err := s.ComputedStyle(ctx, selector, props...)
	if errors.Is(err, render.ErrElementNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return st, true, nil
}

// checkCapstone оценивает проект по пяти измерениям. Баллы складываются,
// результат пройден при сумме не ниже порога.
func checkCapstone(ctx context.Context, c *call) domain.ValidationResult {
	want := c.rubric.Capstone
	doc, err := analyzer.ParseDocument(c.req.Markup)
	if err != nil {
		return c.fault(err)
	}
	sheet := c.lenientSheet()
	structure := structureDimension(doc, want.Structure)

	return c.withSession(ctx, func(s render.Session) domain.ValidationResult {
		layout, err := c.layoutDimension(ctx, s, want.Layout)
		if err != nil {
			return c.fault(err)
		}
		responsive, err := c.responsiveDimension(ctx, s, want.Responsive)
		if err != nil {
			return c.fault(err)
		}
		readability, err := readabilityDimension(ctx, s, want.Readability)
		if err != nil {
			return c.fault(err)
		}
		polish, err := c.polishDimension(ctx, s, sheet, want.Polish)
		if err != nil {
			return c.fault(err)
		}

		return c.grade([]dimension{structure, layout, responsive, polish, readability})
	})
}

func (c *call) grade(dims []dimension) domain.ValidationResult {
	var (
		total    int
		parts    []string
		findings []domain.Finding
	)
	for _, d := range dims {
		total += d.earned
		parts = append(parts, d.feedback())
		if d.earned < d.budget {
			findings = append(findings, domain.Finding{
				Rule:      d.name,
				Severity:  domain.SeverityError,
				ErrorType: domain.ErrorProjectIncomplete,
				Message:   strings.Join(d.notes, "; "),
				Deduction: d.budget - d.earned,
			})
		}
	}

	res := domain.ValidationResult{
		Score:    total,
		Message:  strings.Join(parts, " | "),
		Findings: findings,
	}
	if total >= c.rubric.Threshold() {
		res.Passed = true
		return res
	}
	res.ErrorType = domain.ErrorProjectIncomplete
	return res
}

func structureDimension(doc *analyzer.Document, want domain.StructureDimension) dimension {
	d := dimension{name: "structure", budget: want.Points}
	if len(want.Tags) == 0 {
		d.earned = want.Points
		return d
	}

	var missing []string
	for _, tag := range want.Tags {
		if doc.Count(tag) == 0 {
			missing = append(missing, "<"+tag+">")
		}
	}
	n := len(want.Tags)
	d.earned = want.Points * (n - len(missing)) / n
	if len(missing) > 0 {
		d.notes = append(d.notes, "missing "+strings.Join(missing, ", "))
	}
	return d
}

func (c *call) layoutDimension(ctx context.Context, s render.Session, want domain.LayoutDimension) (dimension, error) {
	d := dimension{name: "layout", budget: want.Points}
	flexPts := want.Points * 2 / 5
	gridPts := want.Points * 2 / 5
	centerPts := want.Points - flexPts - gridPts

	st, ok, err := styleOf(ctx, s, want.Flex, "display")
	if err != nil {
		return d, err
	}
	d.award(flexPts, ok && isDisplay(st["display"], "flex", "inline-flex"), want.Flex+" should use flexbox")

	st, ok, err = styleOf(ctx, s, want.Grid, "display")
	if err != nil {
		return d, err
	}
	d.award(gridPts, ok && isDisplay(st["display"], "grid", "inline-grid"), want.Grid+" should use grid")

	st, ok, err = styleOf(ctx, s, want.Centered, "margin-left", "margin-right")
	if err != nil {
		return d, err
	}
	centered := false
	if ok {
		left, lok := analyzer.ParsePx(st["margin-left"])
		right, rok := analyzer.ParsePx(st["margin-right"])
		centered = lok && rok && left > 0 && analyzer.Within(left, right, 1)
	}
	d.award(centerPts, centered, want.Centered+" should be centered (margin: 0 auto)")
	return d, nil
}

func (c *call) responsiveDimension(ctx context.Context, s render.Session, want domain.ResponsiveDimension) (dimension, error) {
	d := dimension{name: "responsive", budget: want.Points}
	desktopPts := want.Points / 2
	mobilePts := want.Points - desktopPts
	_, h := c.viewport()

	columns := func(width int) (int, bool, error) {
		if err := s.Resize(ctx, width, h); err != nil {
			return 0, false, err
		}
		st, ok, err := styleOf(ctx, s, want.Target, "grid-template-columns")
		if err != nil || !ok {
			return 0, ok, err
		}
		return analyzer.CountTracks(st["grid-template-columns"]), true, nil
	}

	n, ok, err := columns(want.Desktop.Width)
	if err != nil {
		return d, err
	}
	d.award(desktopPts, ok && n >= want.Desktop.Columns,
		fmt.Sprintf("at %dpx %s should show at least %d columns", want.Desktop.Width, want.Target, want.Desktop.Columns))

	n, ok, err = columns(want.Mobile.Width)
	if err != nil {
		return d, err
	}
	d.award(mobilePts, ok && n == want.Mobile.Columns,
		fmt.Sprintf("at %dpx %s should collapse to %d column(s)", want.Mobile.Width, want.Target, want.Mobile.Columns))

	w, h := c.viewport()
	return d, s.Resize(ctx, w, h)
}

func readabilityDimension(ctx context.Context, s render.Session, want domain.ReadabilityDimension) (dimension, error) {
	d := dimension{name: "readability", budget: want.Points}
	fontPts := want.Points * 35 / 100
	linePts := want.Points * 35 / 100
	colorPts := want.Points - fontPts - linePts

	st, ok, err := styleOf(ctx, s, want.Target, "font-size", "line-height", "color")
	if err != nil {
		return d, err
	}
	if !ok {
		d.notes = append(d.notes, "element "+want.Target+" not found")
		return d, nil
	}

	fs, fsOK := analyzer.ParsePx(st["font-size"])
	d.award(fontPts, fsOK && fs >= want.MinFontSize && fs <= want.MaxFontSize,
		fmt.Sprintf("body text should be %g-%gpx", want.MinFontSize, want.MaxFontSize))

	lh, lhOK := analyzer.ParsePx(st["line-height"])
	ratioOK := fsOK && lhOK && fs > 0 && lh/fs >= want.MinLineHeight && lh/fs <= want.MaxLineHeight
	d.award(linePts, ratioOK, fmt.Sprintf("line-height should be %g-%g", want.MinLineHeight, want.MaxLineHeight))

	color := st["color"]
	_, colorOK := analyzer.ParseColor(color)
	d.award(colorPts, colorOK && !analyzer.IsPureBlackOrWhite(color), "use a softer text color than pure black or white")
	return d, nil
}

func (c *call) polishDimension(ctx context.Context, s render.Session, sheet *analyzer.Stylesheet, want domain.PolishDimension) (dimension, error) {
	d := dimension{name: "polish", budget: want.Points}
	hoverPts := want.Points / 2
	motionPts := want.Points - hoverPts

	motion := false
	for _, sel := range want.Animated {
		st, ok, err := styleOf(ctx, s, sel, "transition-duration", "animation-name", "animation-duration")
		if err != nil {
			return d, err
		}
		if !ok {
			continue
		}
		name := strings.TrimSpace(st["animation-name"])
		if analyzer.MaxDurationSeconds(st["transition-duration"]) > 0 ||
			(name != "" && name != "none" && analyzer.MaxDurationSeconds(st["animation-duration"]) > 0) {
			motion = true
			break
		}
	}
	d.award(motionPts, motion, "add a transition or animation")

	effect, err := c.hoverEffect(ctx, s, sheet, want.Hover)
	if errors.Is(err, render.ErrElementNotFound) {
		effect, err = false, nil
	}
	if err != nil {
		return d, err
	}
	d.award(hoverPts, effect, want.Hover+" should react to hover")
	return d, nil
}
