package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/kitbuilder587/webarch-grader/internal/analyzer"
	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/render"
)

// Проверки раскладки третьего уровня идут по порядку и останавливаются на первом нарушении.

// requireElements - каждый селектор должен находить хотя бы один элемент.
func requireElements(s render.Session, selectors ...string) step {
	return func(ctx context.Context) (*domain.Finding, error) {
		for _, sel := range selectors {
			if sel == "" {
				continue
			}
			n, err := s.Count(ctx, sel)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return violation("elements", domain.ErrorElementMissing, "element %s not found", sel), nil
			}
		}
		return nil, nil
	}
}

// lenientSheet - таблица стилей для статических подстраховок; при ошибке разбора nil.
func (c *call) lenientSheet() *analyzer.Stylesheet {
	sheet, err := analyzer.ParseStylesheet(c.req.Style)
	if err != nil {
		return nil
	}
	return sheet
}

func isDisplay(value string, want ...string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, w := range want {
		if value == w {
			return true
		}
	}
	return false
}

func gapTolerance(tol float64) float64 {
	if tol == 0 {
		return 1
	}
	return tol
}

func checkFlexNav(ctx context.Context, c *call) domain.ValidationResult {
	want := c.rubric.Flex
	sheet := c.lenientSheet()

	return c.withSession(ctx, func(s render.Session) domain.ValidationResult {
		var st map[string]string
		tol := gapTolerance(want.GapTolerance)

		return c.failFast(ctx,
			requireElements(s, want.Container, want.Items),
			func(ctx context.Context) (*domain.Finding, error) {
				var err error
				st, err = s.ComputedStyle(ctx, want.Container, "display", "justify-content", "align-items", "column-gap")
				if err != nil {
					return nil, err
				}
				if !isDisplay(st["display"], "flex", "inline-flex") {
					return violation("display", domain.ErrorDisplayInvalid, "%s should use display: flex, found %s", want.Container, st["display"]), nil
				}
				return nil, nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				if !strings.EqualFold(st["justify-content"], want.JustifyContent) {
					return violation("justify-content", domain.ErrorAlignmentInvalid,
						"horizontal alignment: justify-content should be %s, found %s", want.JustifyContent, st["justify-content"]), nil
				}
				return nil, nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				if !strings.EqualFold(st["align-items"], want.AlignItems) {
					return violation("align-items", domain.ErrorAlignmentInvalid,
						"vertical alignment: align-items should be %s, found %s", want.AlignItems, st["align-items"]), nil
				}
				return nil, nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				if analyzer.PxWithin(st["column-gap"], want.Gap, tol) {
					return nil, nil
				}
				if want.Items != "" {
					m, err := s.ComputedStyle(ctx, want.Items, "margin-left", "margin-right")
					if err != nil {
						return nil, err
					}
					left, _ := analyzer.ParsePx(m["margin-left"])
					right, _ := analyzer.ParsePx(m["margin-right"])
					if analyzer.Within(left+right, want.Gap, tol) || analyzer.Within(left, want.Gap, tol) || analyzer.Within(right, want.Gap, tol) {
						return nil, nil
					}
				}
				return violation("spacing", domain.ErrorSpacingInvalid,
					"items should be %gpx apart (use gap or margin)", want.Gap), nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				_, h := c.viewport()
				if err := s.Resize(ctx, want.MobileWidth, h); err != nil {
					return nil, err
				}
				m, err := s.ComputedStyle(ctx, want.Container, "flex-wrap")
				if err != nil {
					return nil, err
				}
				if strings.EqualFold(m["flex-wrap"], want.Wrap) {
					return nil, nil
				}
				if sheet != nil {
					if v, ok := sheet.MediaDeclared(want.Container, "flex-wrap", want.MobileWidth); ok && strings.EqualFold(v, want.Wrap) {
						return nil, nil
					}
					if v, ok := sheet.MediaDeclared(want.Container, "flex-flow", want.MobileWidth); ok && strings.Contains(strings.ToLower(v), want.Wrap) {
						return nil, nil
					}
				}
				return violation("wrap", domain.ErrorWrapMissing,
					"at %dpx the menu should wrap (flex-wrap: %s inside a media query)", want.MobileWidth, want.Wrap), nil
			},
		)
	})
}

// columnsStep сверяет число колонок сетки при заданной ширине окна.
func columnsStep(c *call, s render.Session, container string, bp domain.Breakpoint) step {
	return func(ctx context.Context) (*domain.Finding, error) {
		_, h := c.viewport()
		if err := s.Resize(ctx, bp.Width, h); err != nil {
			return nil, err
		}
		st, err := s.ComputedStyle(ctx, container, "grid-template-columns")
		if err != nil {
			return nil, err
		}
		if n := analyzer.CountTracks(st["grid-template-columns"]); n != bp.Columns {
			name := bp.Name
			if name == "" {
				name = fmt.Sprintf("%dpx", bp.Width)
			}
			return violation("columns "+name, domain.ErrorColumnsInvalid,
				"at %dpx (%s) expected %d columns, found %d", bp.Width, name, bp.Columns, n), nil
		}
		return nil, nil
	}
}

func restoreViewport(c *call, s render.Session) step {
	return func(ctx context.Context) (*domain.Finding, error) {
		w, h := c.viewport()
		return nil, s.Resize(ctx, w, h)
	}
}

func checkGridCards(ctx context.Context, c *call) domain.ValidationResult {
	want := c.rubric.Grid

	return c.withSession(ctx, func(s render.Session) domain.ValidationResult {
		var st map[string]string
		tol := gapTolerance(want.GapTolerance)

		steps := []step{
			requireElements(s, want.Container),
			func(ctx context.Context) (*domain.Finding, error) {
				var err error
				st, err = s.ComputedStyle(ctx, want.Container, "display", "align-items", "column-gap", "row-gap")
				if err != nil {
					return nil, err
				}
				if !isDisplay(st["display"], "grid", "inline-grid") {
					return violation("display", domain.ErrorDisplayInvalid, "%s should use display: grid, found %s", want.Container, st["display"]), nil
				}
				return nil, nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				if want.AlignItems != "" && !strings.EqualFold(st["align-items"], want.AlignItems) {
					return violation("align-items", domain.ErrorAlignmentInvalid,
						"align-items should be %s, found %s", want.AlignItems, st["align-items"]), nil
				}
				return nil, nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				if !analyzer.PxWithin(st["column-gap"], want.Gap, tol) || !analyzer.PxWithin(st["row-gap"], want.Gap, tol) {
					return violation("gap", domain.ErrorSpacingInvalid,
						"gap between cards should be %gpx, found %s / %s", want.Gap, st["row-gap"], st["column-gap"]), nil
				}
				return nil, nil
			},
		}
		for _, bp := range want.Breakpoints {
			steps = append(steps, columnsStep(c, s, want.Container, bp))
		}
		return c.failFast(ctx, steps...)
	})
}

func checkFloatArticle(ctx context.Context, c *call) domain.ValidationResult {
	want := c.rubric.Float
	tol := want.Tolerance
	if tol == 0 {
		tol = 1
	}

	return c.withSession(ctx, func(s render.Session) domain.ValidationResult {
		var st map[string]string
		var img render.Box

		return c.failFast(ctx,
			requireElements(s, want.Image, want.Container),
			func(ctx context.Context) (*domain.Finding, error) {
				var err error
				st, err = s.ComputedStyle(ctx, want.Image, "float", "width", "margin-right")
				if err != nil {
					return nil, err
				}
				if !strings.EqualFold(st["float"], want.Float) {
					return violation("float", domain.ErrorFloatInvalid, "%s should have float: %s, found %s", want.Image, want.Float, st["float"]), nil
				}
				return nil, nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				var err error
				img, err = s.Box(ctx, want.Image)
				if err != nil {
					return nil, err
				}
				if !analyzer.PxWithin(st["width"], want.Width, tol) && !analyzer.Within(img.Width, want.Width, tol) {
					return violation("width", domain.ErrorSizeInvalid, "%s width should be %gpx, found %s", want.Image, want.Width, st["width"]), nil
				}
				return nil, nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				if !analyzer.PxWithin(st["margin-right"], want.MarginRight, tol) {
					return violation("margin-right", domain.ErrorSpacingInvalid,
						"%s margin-right should be %gpx, found %s", want.Image, want.MarginRight, st["margin-right"]), nil
				}
				return nil, nil
			},
			func(ctx context.Context) (*domain.Finding, error) {
				parent, err := s.Box(ctx, want.Container)
				if err != nil {
					return nil, err
				}
				// схлопнутый контейнер не выше самой картинки
				if parent.Height > img.Height+want.ClearMargin {
					return nil, nil
				}
				cleared, err := clearsFloat(ctx, s, want.Container, want.Float)
				if err != nil || cleared {
					return nil, err
				}
				return violation("clearfix", domain.ErrorFloatNotCleared,
					"%s does not contain the floated image (height %gpx, image %gpx), clear the float", want.Container, parent.Height, img.Height), nil
			},
		)
	})
}

// clearsFloat - контейнер явно удерживает float: overflow создаёт новый контекст
// форматирования или ::after работает как clearfix.
func clearsFloat(ctx context.Context, s render.Session, container, side string) (bool, error) {
	st, err := s.ComputedStyle(ctx, container, "overflow")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(st["overflow"])) {
	case "hidden", "auto", "scroll":
		return true, nil
	}

	after, err := s.PseudoStyle(ctx, container, "::after", "display", "clear")
	if err != nil {
		return false, err
	}
	clear := strings.ToLower(strings.TrimSpace(after["clear"]))
	return strings.EqualFold(after["display"], "block") && (clear == "both" || clear == strings.ToLower(side)), nil
}
