package validator

import (
	"strings"
	"testing"

	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/rubric"
)

// проверки первой стадии статические, браузер не подключаем
func newStaticEngine() *Engine {
	return New(Deps{Rubrics: rubric.Default()})
}

func TestDocumentSkeleton(t *testing.T) {
	e := newStaticEngine()

	tests := []struct {
		name     string
		markup   string
		wantPass bool
		wantType domain.ErrorType
	}{
		{
			name:     "full credit",
			markup:   "<!DOCTYPE html>\n<html>\n<head><title>t</title></head>\n<body><p>hi</p></body>\n</html>",
			wantPass: true,
		},
		{
			name:     "lowercase doctype",
			markup:   "<!doctype html><html><head></head><body></body></html>",
			wantPass: true,
		},
		{
			name:     "no doctype",
			markup:   "<html><head></head><body></body></html>",
			wantType: domain.ErrorDoctypeMissing,
		},
		{
			name:     "no body",
			markup:   "<!DOCTYPE html><html><head></head></html>",
			wantType: domain.ErrorTagMissing,
		},
		{
			name:     "body not closed",
			markup:   "<!DOCTYPE html><html><head></head><body><p>x</p></html>",
			wantType: domain.ErrorTagUnclosed,
		},
		{
			name:     "head before html",
			markup:   "<!DOCTYPE html><head></head><html><body></body></html>",
			wantType: domain.ErrorNestingInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(e, "1-1", tt.markup, "")
			if res.Passed != tt.wantPass {
				t.Fatalf("Passed = %v, want %v (%+v)", res.Passed, tt.wantPass, res)
			}
			if tt.wantPass {
				if res.Score != 100 {
					t.Errorf("Score = %d, want 100", res.Score)
				}
				return
			}
			if res.Score != 0 {
				t.Errorf("Score = %d, want 0", res.Score)
			}
			if res.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %v, want %v", res.ErrorType, tt.wantType)
			}
			if len(res.Findings) != 1 || res.Findings[0].Severity != domain.SeverityError {
				t.Errorf("Findings = %+v, want one error finding", res.Findings)
			}
		})
	}
}

func TestSemanticTags(t *testing.T) {
	e := newStaticEngine()

	tests := []struct {
		name     string
		markup   string
		wantType domain.ErrorType
	}{
		{
			name:   "full credit",
			markup: "<header><nav>menu</nav></header><main>content</main><footer>bye</footer>",
		},
		{
			name:     "nav missing",
			markup:   "<header></header><main></main><footer></footer>",
			wantType: domain.ErrorSemanticMissing,
		},
		{
			name:     "legacy container left",
			markup:   `<header><nav></nav></header><main></main><footer></footer><div class="wide footer">old</div>`,
			wantType: domain.ErrorLegacyContainer,
		},
		{
			name:     "main inside footer",
			markup:   "<header><nav></nav></header><footer><main>content</main></footer>",
			wantType: domain.ErrorSemanticNesting,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(e, "1-2", tt.markup, "")
			if tt.wantType == domain.ErrorNone {
				if !res.Passed || res.Score != 100 {
					t.Errorf("Validate(1-2) = %+v, want passed with 100", res)
				}
				return
			}
			if res.Passed {
				t.Fatal("Passed = true, want false")
			}
			if res.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %v, want %v (%s)", res.ErrorType, tt.wantType, res.Message)
			}
		})
	}
}

const travelBlog = `<h1>My Travel Blog</h1>
<h2>Trip to Yunnan</h2>
<p>Yunnan is a beautiful place with snow-capped mountains, lakes, and ancient cities.</p>
<img src="https://picsum.photos/800/400" alt="Yunnan Scenery">
<a href="https://example.com/yunnan">View More Photos</a>`

func TestTextAndMedia(t *testing.T) {
	e := newStaticEngine()

	tests := []struct {
		name     string
		markup   string
		wantType domain.ErrorType
	}{
		{name: "full credit", markup: travelBlog},
		{
			name:     "two h1",
			markup:   "<h1>Other</h1>" + travelBlog,
			wantType: domain.ErrorHeadingInvalid,
		},
		{
			name:     "wrong heading text",
			markup:   strings.Replace(travelBlog, "Trip to Yunnan", "Trip", 1),
			wantType: domain.ErrorHeadingInvalid,
		},
		{
			name:     "paragraph missing",
			markup:   strings.Replace(travelBlog, "<p>", "<div>", 1),
			wantType: domain.ErrorParagraphInvalid,
		},
		{
			name:     "wrong alt",
			markup:   strings.Replace(travelBlog, `alt="Yunnan Scenery"`, `alt="photo"`, 1),
			wantType: domain.ErrorMediaInvalid,
		},
		{
			name:     "link text",
			markup:   strings.Replace(travelBlog, "View More Photos", "more", 1),
			wantType: domain.ErrorMediaInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(e, "1-3", tt.markup, "")
			if tt.wantType == domain.ErrorNone {
				if !res.Passed || res.Score != 100 {
					t.Errorf("Validate(1-3) = %+v, want passed with 100", res)
				}
				return
			}
			if res.Passed {
				t.Fatal("Passed = true, want false")
			}
			if res.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %v, want %v (%s)", res.ErrorType, tt.wantType, res.Message)
			}
		})
	}
}

func TestChoice(t *testing.T) {
	e := newStaticEngine()

	tests := []struct {
		answer    string
		wantPass  bool
		wantScore int
		wantType  domain.ErrorType
	}{
		{answer: "B", wantPass: true, wantScore: 10},
		{answer: "  B\n", wantPass: true, wantScore: 10},
		{answer: "A", wantType: domain.ErrorAnswerWrong},
		{answer: "", wantType: domain.ErrorAnswerMissing},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			res := run(e, "1-4", "", tt.answer)
			if res.Passed != tt.wantPass {
				t.Fatalf("Passed = %v, want %v", res.Passed, tt.wantPass)
			}
			if res.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", res.Score, tt.wantScore)
			}
			if res.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %v, want %v", res.ErrorType, tt.wantType)
			}
		})
	}

	res := run(e, "1-4", "", "C")
	if !strings.Contains(res.Message, "<main>") {
		t.Errorf("Message = %q, want explanation included", res.Message)
	}
}
