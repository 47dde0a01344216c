package validator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/kitbuilder587/webarch-grader/internal/analyzer"
	"github.com/kitbuilder587/webarch-grader/internal/domain"
)

// checkStructure - статические проверки разметки, fail-fast. Браузер не нужен.
func checkStructure(ctx context.Context, c *call) domain.ValidationResult {
	doc, err := analyzer.ParseDocument(c.req.Markup)
	if err != nil {
		return c.fault(err)
	}
	f := structureViolation(doc, c.rubric.Structure)
	return verdict(f, c.rubric.PassScore, c.passMessage("document structure is correct"))
}

func structureViolation(doc *analyzer.Document, want *domain.StructureRubric) *domain.Finding {
	if want.RequireDoctype && !doc.HasDoctype() {
		return violation("doctype", domain.ErrorDoctypeMissing, "missing <!DOCTYPE html> declaration at the top of the document")
	}

	for _, tag := range want.RootTags {
		if !doc.HasOpenTag(tag) {
			return violation("root-tags", domain.ErrorTagMissing, "missing <%s> tag", tag)
		}
		if !doc.HasCloseTag(tag) {
			return violation("root-tags", domain.ErrorTagUnclosed, "<%s> tag is not closed, add </%s>", tag, tag)
		}
	}

	for _, n := range want.Nesting {
		for _, child := range n.Children {
			if !doc.IsDescendant(n.Parent, child) || !doc.EnclosedInSource(n.Parent, child) {
				return violation("nesting", domain.ErrorNestingInvalid, "<%s> must be placed inside <%s>", child, n.Parent)
			}
		}
	}

	if f := semanticViolation(doc, want); f != nil {
		return f
	}
	return textMediaViolation(doc, want)
}

func semanticViolation(doc *analyzer.Document, want *domain.StructureRubric) *domain.Finding {
	for _, tag := range want.SemanticTags {
		if doc.Count(tag) == 0 {
			return violation("semantic-tags", domain.ErrorSemanticMissing, "missing semantic <%s> element", tag)
		}
	}

	for _, m := range want.ForbiddenMarkers {
		if doc.HasMarker(m.Tag, m.Attr, m.Value) {
			return violation("legacy-containers", domain.ErrorLegacyContainer,
				"replace <%s %s=\"%s\"> with the semantic element", m.Tag, m.Attr, m.Value)
		}
	}

	for _, ex := range want.Exclusions {
		if container, inside := doc.InsideAny(ex.Tag, ex.NotInside); inside {
			return violation("semantic-nesting", domain.ErrorSemanticNesting,
				"<%s> must not be nested inside <%s>", ex.Tag, container)
		}
	}
	return nil
}

func textMediaViolation(doc *analyzer.Document, want *domain.StructureRubric) *domain.Finding {
	for _, h := range want.Headings {
		nodes := doc.FindAll(h.Tag)
		if h.Count > 0 && len(nodes) != h.Count {
			return violation("headings", domain.ErrorHeadingInvalid,
				"expected exactly %d <%s> element(s), found %d", h.Count, h.Tag, len(nodes))
		}
		if h.Min > 0 && len(nodes) < h.Min {
			return violation("headings", domain.ErrorHeadingInvalid,
				"expected at least %d <%s> element(s), found %d", h.Min, h.Tag, len(nodes))
		}
		if h.Text != "" && !anyTextEquals(nodes, h.Text) {
			return violation("headings", domain.ErrorHeadingInvalid, "<%s> text should be %q", h.Tag, h.Text)
		}
	}

	if want.ParagraphText != "" {
		found := false
		for _, p := range doc.FindAll("p") {
			if strings.Contains(analyzer.Text(p), want.ParagraphText) {
				found = true
				break
			}
		}
		if !found {
			return violation("paragraph", domain.ErrorParagraphInvalid, "no <p> contains the required text %q", want.ParagraphText)
		}
	}

	for _, m := range want.Media {
		if f := mediaViolation(doc, m); f != nil {
			return f
		}
	}
	return nil
}

func anyTextEquals(nodes []*html.Node, want string) bool {
	want = strings.Join(strings.Fields(want), " ")
	for _, n := range nodes {
		if analyzer.Text(n) == want {
			return true
		}
	}
	return false
}

// mediaViolation ищет элемент, у которого совпали все атрибуты и текст.
// Если такого нет, сообщает о первом расхождении у первого кандидата.
func mediaViolation(doc *analyzer.Document, m domain.MediaRule) *domain.Finding {
	nodes := doc.FindAll(m.Tag)
	if len(nodes) == 0 {
		return violation("media", domain.ErrorMediaInvalid, "missing <%s> element", m.Tag)
	}

	var firstMismatch string
	for _, n := range nodes {
		mismatch := ""
		for _, a := range m.Attrs {
			if strings.TrimSpace(analyzer.Attr(n, a.Name)) != strings.TrimSpace(a.Value) {
				mismatch = fmt.Sprintf("<%s> attribute %s should be %q", m.Tag, a.Name, a.Value)
				break
			}
		}
		if mismatch == "" && m.Text != "" && analyzer.Text(n) != strings.TrimSpace(m.Text) {
			mismatch = fmt.Sprintf("<%s> text should be %q", m.Tag, m.Text)
		}
		if mismatch == "" {
			return nil
		}
		if firstMismatch == "" {
			firstMismatch = mismatch
		}
	}
	return violation("media", domain.ErrorMediaInvalid, "%s", firstMismatch)
}

// checkChoice сравнивает выбранную метку с правильной. Ответ приходит в поле стилей.
func checkChoice(ctx context.Context, c *call) domain.ValidationResult {
	want := c.rubric.Choice
	answer := strings.TrimSpace(c.req.Style)
	if answer == "" {
		return domain.Failed(domain.ErrorAnswerMissing, "no answer selected")
	}
	if answer != strings.TrimSpace(want.Answer) {
		msg := fmt.Sprintf("wrong answer, the correct option is %s", want.Answer)
		if want.Explanation != "" {
			msg += ": " + want.Explanation
		}
		return domain.Failed(domain.ErrorAnswerWrong, msg)
	}

	msg := "correct"
	if want.Explanation != "" {
		msg += ": " + want.Explanation
	}
	return domain.Passed(c.rubric.PassScore, c.passMessage(msg))
}
