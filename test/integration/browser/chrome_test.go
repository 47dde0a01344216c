package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/kitbuilder587/webarch-grader/internal/analyzer"
	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/render"
	"github.com/kitbuilder587/webarch-grader/internal/render/chrome"
	"github.com/kitbuilder587/webarch-grader/internal/rubric"
	"github.com/kitbuilder587/webarch-grader/internal/validator"
)

var launcher *chrome.Launcher

func TestMain(m *testing.M) {
	if os.Getenv("SHORT_TESTS") == "1" {
		os.Exit(0)
	}

	path := chromePath()
	if path == "" {
		fmt.Println("chrome not found, set CHROME_PATH to run browser tests")
		os.Exit(0)
	}

	launcher = chrome.NewLauncher(chrome.Config{
		ExecPath:       path,
		Headless:       true,
		SessionTimeout: 2 * time.Minute,
	}, nil)

	os.Exit(m.Run())
}

func chromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

const sessionMarkup = `<div class="grid"><div>a</div><div>b</div><div>c</div></div>
<div class="box">box</div>`

const sessionStyle = `
.grid { display: grid; grid-template-columns: repeat(3, 1fr); }
@media (max-width: 800px) {
  .grid { grid-template-columns: 1fr; }
}
.box { width: 120px; padding: 10px; border: 1px solid rgb(204, 204, 204); }
.box::after { content: ""; display: block; clear: both; }
.box:hover { color: rgb(255, 0, 0); }
`

func TestSession_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	sess, err := launcher.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if err := sess.Load(ctx, render.Document(sessionMarkup, sessionStyle)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// медиа-запросы следуют эмулированному окну
	for _, tt := range []struct {
		width int
		want  int
	}{{1400, 3}, {600, 1}} {
		if err := sess.Resize(ctx, tt.width, 900); err != nil {
			t.Fatalf("Resize(%d) error = %v", tt.width, err)
		}
		st, err := sess.ComputedStyle(ctx, ".grid", "grid-template-columns")
		if err != nil {
			t.Fatalf("ComputedStyle() error = %v", err)
		}
		if n := analyzer.CountTracks(st["grid-template-columns"]); n != tt.want {
			t.Errorf("at %dpx columns = %d (%q), want %d", tt.width, n, st["grid-template-columns"], tt.want)
		}
	}

	box, err := sess.Box(ctx, ".box")
	if err != nil {
		t.Fatalf("Box() error = %v", err)
	}
	if box.Width != 142 {
		t.Errorf("Box().Width = %v, want 142", box.Width)
	}

	st, err := sess.ComputedStyle(ctx, ".box", "border-top-color")
	if err != nil {
		t.Fatalf("ComputedStyle() error = %v", err)
	}
	if !analyzer.ColorsEqual(st["border-top-color"], "#ccc") {
		t.Errorf("border-top-color = %q, want #ccc", st["border-top-color"])
	}

	if n, err := sess.Count(ctx, ".grid > div"); err != nil || n != 3 {
		t.Errorf("Count() = (%d, %v), want (3, nil)", n, err)
	}

	after, err := sess.PseudoStyle(ctx, ".box", "::after", "display", "clear")
	if err != nil {
		t.Fatalf("PseudoStyle() error = %v", err)
	}
	if after["display"] != "block" || after["clear"] != "both" {
		t.Errorf("PseudoStyle(::after) = %v, want display block and clear both", after)
	}

	if err := sess.Hover(ctx, ".box"); err != nil {
		t.Fatalf("Hover() error = %v", err)
	}
	st, err = sess.ComputedStyle(ctx, ".box", "color")
	if err != nil {
		t.Fatalf("ComputedStyle() error = %v", err)
	}
	if st["color"] != "rgb(255, 0, 0)" {
		t.Errorf("color under hover = %q, want rgb(255, 0, 0)", st["color"])
	}

	if _, err := sess.ComputedStyle(ctx, ".missing", "color"); !errors.Is(err, render.ErrElementNotFound) {
		t.Errorf("ComputedStyle(.missing) error = %v, want ErrElementNotFound", err)
	}

	if err := sess.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := sess.Release(); !errors.Is(err, render.ErrSessionClosed) {
		t.Errorf("second Release() error = %v, want ErrSessionClosed", err)
	}
	if _, err := sess.Count(ctx, ".box"); !errors.Is(err, render.ErrSessionClosed) {
		t.Errorf("Count() after Release error = %v, want ErrSessionClosed", err)
	}
}

const gridStyle = `
%[1]s { display: grid; grid-template-columns: repeat(3, 1fr); gap: 15px; align-items: center; }
@media (max-width: 1200px) {
  %[1]s { grid-template-columns: repeat(2, 1fr); }
}
@media (max-width: 768px) {
  %[1]s { grid-template-columns: 1fr; }
}
`

const portfolioMarkup = `<section class="project-grid">
  <article class="project-card">one</article>
  <article class="project-card">two</article>
  <article class="project-card">three</article>
</section>
<ul class="skill-list"><li>html</li><li>css</li><li>go</li></ul>`

func TestValidator_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	e := validator.New(validator.Deps{
		Rubrics: rubric.Default(),
		Browser: launcher,
	})

	cards := `<div class="card-container"><div class="card">1</div><div class="card">2</div><div class="card">3</div>
<div class="card">4</div><div class="card">5</div><div class="card">6</div></div>`

	tests := []struct {
		name     string
		exercise string
		markup   string
		style    string
		wantPass bool
		wantType domain.ErrorType
	}{
		{
			name:     "box model correct",
			exercise: "2-2",
			markup:   `<div class="container"><div class="box">A</div><div class="box">B</div></div>`,
			style: `.container { display: flex; flex-wrap: wrap; }
.box { box-sizing: border-box; width: 200px; padding: 15px; border: 2px solid #ccc; margin: 0 20px 20px 0; }`,
			wantPass: true,
		},
		{
			name:     "box model content-box",
			exercise: "2-2",
			markup:   `<div class="container"><div class="box">A</div></div>`,
			style: `.container { display: flex; flex-wrap: wrap; }
.box { width: 200px; padding: 15px; border: 2px solid #ccc; margin: 0 20px 20px 0; }`,
			wantType: domain.ErrorBoxModel,
		},
		{
			name:     "grid cards responsive",
			exercise: "3-2",
			markup:   cards,
			style:    fmt.Sprintf(gridStyle, ".card-container"),
			wantPass: true,
		},
		{
			name:     "grid cards without media queries",
			exercise: "3-2",
			markup:   cards,
			style:    ".card-container { display: grid; grid-template-columns: repeat(3, 1fr); gap: 15px; align-items: center; }",
			wantType: domain.ErrorColumnsInvalid,
		},
		{
			name:     "portfolio complete",
			exercise: "4-1",
			markup:   portfolioMarkup,
			style: fmt.Sprintf(gridStyle, ".project-grid") + `
.skill-list { display: flex; flex-wrap: wrap; gap: 10px; }
.project-card:hover { transform: translateY(-5px); }`,
			wantPass: true,
		},
		{
			name:     "portfolio skills do not wrap",
			exercise: "4-1",
			markup:   portfolioMarkup,
			style: fmt.Sprintf(gridStyle, ".project-grid") + `
.skill-list { display: flex; gap: 10px; }
.project-card:hover { transform: translateY(-5px); }`,
			wantType: domain.ErrorWrapMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Validate(context.Background(), domain.ValidationRequest{
				ExerciseID: tt.exercise,
				Markup:     tt.markup,
				Style:      tt.style,
			})
			if res.Passed != tt.wantPass {
				t.Fatalf("Passed = %v, want %v (%s: %s)", res.Passed, tt.wantPass, res.ErrorType, res.Message)
			}
			if tt.wantPass {
				if res.Score != 100 {
					t.Errorf("Score = %d, want 100", res.Score)
				}
				return
			}
			if res.Score >= 100 {
				t.Errorf("Score = %d, want below 100", res.Score)
			}
			if res.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %v, want %v (%s)", res.ErrorType, tt.wantType, res.Message)
			}
		})
	}
}
