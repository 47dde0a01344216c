package validator

import (
	"testing"

	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/render"
	"github.com/kitbuilder587/webarch-grader/internal/render/mock"
)

func flexSession() *mock.Session {
	return mock.NewSession().
		WithStyle(".nav-container", map[string]string{
			"display":         "flex",
			"justify-content": "center",
			"align-items":     "center",
			"column-gap":      "15px",
			"flex-wrap":       "nowrap",
		}).
		WithStyle(".nav-link", map[string]string{"margin-left": "0px", "margin-right": "0px"}).
		WithBreakpoint(mock.Breakpoint{
			MaxWidth: 768,
			Styles:   mock.Styles{".nav-container": {"flex-wrap": "wrap"}},
		})
}

func TestFlexNav(t *testing.T) {
	tests := []struct {
		name     string
		sess     func() *mock.Session
		style    string
		wantPass bool
		wantType domain.ErrorType
	}{
		{
			name:     "full credit",
			sess:     flexSession,
			wantPass: true,
		},
		{
			name: "spacing through margins",
			sess: func() *mock.Session {
				s := flexSession()
				s.Base[".nav-container"]["column-gap"] = "normal"
				s.Base[".nav-link"]["margin-right"] = "15px"
				return s
			},
			wantPass: true,
		},
		{
			name: "gap within tolerance",
			sess: func() *mock.Session {
				s := flexSession()
				s.Base[".nav-container"]["column-gap"] = "16px"
				return s
			},
			wantPass: true,
		},
		{
			name: "not flex",
			sess: func() *mock.Session {
				s := flexSession()
				s.Base[".nav-container"]["display"] = "block"
				return s
			},
			wantType: domain.ErrorDisplayInvalid,
		},
		{
			name: "not centered",
			sess: func() *mock.Session {
				s := flexSession()
				s.Base[".nav-container"]["justify-content"] = "flex-start"
				return s
			},
			wantType: domain.ErrorAlignmentInvalid,
		},
		{
			name: "wrong gap",
			sess: func() *mock.Session {
				s := flexSession()
				s.Base[".nav-container"]["column-gap"] = "30px"
				return s
			},
			wantType: domain.ErrorSpacingInvalid,
		},
		{
			name: "no wrap on mobile",
			sess: func() *mock.Session {
				s := flexSession()
				s.Breakpoints = nil
				return s
			},
			wantType: domain.ErrorWrapMissing,
		},
		{
			name: "wrap found in media rule",
			sess: func() *mock.Session {
				s := flexSession()
				s.Breakpoints = nil
				return s
			},
			style:    "@media (max-width: 768px) { .nav-container { flex-flow: row wrap; } }",
			wantPass: true,
		},
		{
			name:     "missing container",
			sess:     mock.NewSession,
			wantType: domain.ErrorElementMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := tt.sess()
			res := run(newTestEngine(sess), "3-1", "", tt.style)
			if res.Passed != tt.wantPass {
				t.Errorf("Passed = %v, want %v (message %q)", res.Passed, tt.wantPass, res.Message)
			}
			if res.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %v, want %v", res.ErrorType, tt.wantType)
			}
			wantScore := 0
			if tt.wantPass {
				wantScore = 100
			}
			if res.Score != wantScore {
				t.Errorf("Score = %d, want %d", res.Score, wantScore)
			}
			if sess.Releases() != 1 {
				t.Errorf("Releases() = %d, want 1", sess.Releases())
			}
		})
	}
}

func gridSession(desktop, tablet, mobile string) *mock.Session {
	return mock.NewSession().
		WithStyle(".card-container", map[string]string{
			"display":               "grid",
			"align-items":           "center",
			"column-gap":            "15px",
			"row-gap":               "15px",
			"grid-template-columns": desktop,
		}).
		WithBreakpoint(mock.Breakpoint{
			MinWidth: 768,
			MaxWidth: 1200,
			Styles:   mock.Styles{".card-container": {"grid-template-columns": tablet}},
		}).
		WithBreakpoint(mock.Breakpoint{
			MaxWidth: 767,
			Styles:   mock.Styles{".card-container": {"grid-template-columns": mobile}},
		})
}

func TestGridCards(t *testing.T) {
	tests := []struct {
		name     string
		sess     *mock.Session
		wantPass bool
		wantType domain.ErrorType
		wantMsg  string
	}{
		{
			name:     "three two one",
			sess:     gridSession("450px 450px 450px", "480px 480px", "680px"),
			wantPass: true,
		},
		{
			name:     "four tracks on desktop",
			sess:     gridSession("300px 300px 300px 300px", "480px 480px", "680px"),
			wantType: domain.ErrorColumnsInvalid,
			wantMsg:  "at 1400px (desktop) expected 3 columns, found 4",
		},
		{
			name:     "mobile keeps two columns",
			sess:     gridSession("450px 450px 450px", "480px 480px", "340px 340px"),
			wantType: domain.ErrorColumnsInvalid,
			wantMsg:  "at 700px (mobile) expected 1 columns, found 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(newTestEngine(tt.sess), "3-2", "", "")
			if res.Passed != tt.wantPass {
				t.Errorf("Passed = %v, want %v (message %q)", res.Passed, tt.wantPass, res.Message)
			}
			if res.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %v, want %v", res.ErrorType, tt.wantType)
			}
			if tt.wantMsg != "" && res.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", res.Message, tt.wantMsg)
			}
		})
	}
}

func TestGridCards_Gap(t *testing.T) {
	sess := gridSession("450px 450px 450px", "480px 480px", "680px")
	sess.Base[".card-container"]["row-gap"] = "20px"

	res := run(newTestEngine(sess), "3-2", "", "")
	if res.ErrorType != domain.ErrorSpacingInvalid {
		t.Errorf("ErrorType = %v, want %v", res.ErrorType, domain.ErrorSpacingInvalid)
	}
}

func floatSession(containerHeight float64) *mock.Session {
	return mock.NewSession().
		WithStyle(".article-img", map[string]string{
			"float":        "left",
			"width":        "300px",
			"margin-right": "10px",
		}).
		WithStyle(".article-container", map[string]string{"overflow": "visible"}).
		WithBox(".article-img", render.Box{Width: 300, Height: 200}).
		WithBox(".article-container", render.Box{Width: 900, Height: containerHeight})
}

func TestFloatArticle(t *testing.T) {
	tests := []struct {
		name     string
		sess     *mock.Session
		wantPass bool
		wantType domain.ErrorType
	}{
		{"cleared", floatSession(260), true, domain.ErrorNone},
		{"collapsed to image height", floatSession(200), false, domain.ErrorFloatNotCleared},
		{"collapsed to text only", floatSession(48), false, domain.ErrorFloatNotCleared},
		{"within clear margin", floatSession(204), false, domain.ErrorFloatNotCleared},
		{"clearfix pseudo element", floatSession(204).WithPseudo(".article-container", "::after",
			map[string]string{"display": "block", "clear": "both"}), true, domain.ErrorNone},
		{"clearfix on the float side", floatSession(200).WithPseudo(".article-container", "::after",
			map[string]string{"display": "block", "clear": "left"}), true, domain.ErrorNone},
		{"pseudo element without clear", floatSession(200).WithPseudo(".article-container", "::after",
			map[string]string{"display": "block", "clear": "none"}), false, domain.ErrorFloatNotCleared},
		{"inline pseudo element", floatSession(200).WithPseudo(".article-container", "::after",
			map[string]string{"display": "inline", "clear": "both"}), false, domain.ErrorFloatNotCleared},
		{"overflow hidden", func() *mock.Session {
			s := floatSession(200)
			s.Base[".article-container"]["overflow"] = "hidden"
			return s
		}(), true, domain.ErrorNone},
		{"no float", func() *mock.Session {
			s := floatSession(260)
			s.Base[".article-img"]["float"] = "none"
			return s
		}(), false, domain.ErrorFloatInvalid},
		{"wrong width", func() *mock.Session {
			s := floatSession(260).WithBox(".article-img", render.Box{Width: 250, Height: 200})
			s.Base[".article-img"]["width"] = "250px"
			return s
		}(), false, domain.ErrorSizeInvalid},
		{"wrong margin", func() *mock.Session {
			s := floatSession(260)
			s.Base[".article-img"]["margin-right"] = "20px"
			return s
		}(), false, domain.ErrorSpacingInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(newTestEngine(tt.sess), "3-3", "", "")
			if res.Passed != tt.wantPass {
				t.Errorf("Passed = %v, want %v (message %q)", res.Passed, tt.wantPass, res.Message)
			}
			if res.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %v, want %v", res.ErrorType, tt.wantType)
			}
		})
	}
}
