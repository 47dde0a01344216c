package analyzer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleStyle = `
h1 { color: red; }
.intro, .lead { color: blue; }
#title { text-align: center; }
.article  p { line-height: 1.6; color: #333; }
.article p { color: #444; }
.box { padding: 10px !important; }
.box { padding: 20px; }
.btn:hover { transform: scale(1.05); }
@media (max-width: 768px) {
  .nav-container { flex-wrap: wrap; }
}
@keyframes fadeIn {
  from { opacity: 0; }
  to { opacity: 1; }
}
`

func TestStylesheet_Declared(t *testing.T) {
	s, err := ParseStylesheet(sampleStyle)
	if err != nil {
		t.Fatalf("ParseStylesheet() error = %v", err)
	}

	tests := []struct {
		name      string
		selector  string
		property  string
		wantValue string
		wantFound bool
	}{
		{"simple", "h1", "color", "red", true},
		{"selector list", ".lead", "color", "blue", true},
		{"whitespace normalized and last wins", ".article p", "color", "#444", true},
		{"important beats later", ".box", "padding", "10px", true},
		{"media rule is not unconditional", ".nav-container", "flex-wrap", "", false},
		{"missing selector", ".missing", "color", "", false},
		{"property case", "H1", "COLOR", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := s.Declared(tt.selector, tt.property)
			if found != tt.wantFound || got != tt.wantValue {
				t.Errorf("Declared(%q, %q) = (%q, %v), want (%q, %v)",
					tt.selector, tt.property, got, found, tt.wantValue, tt.wantFound)
			}
		})
	}
}

func TestStylesheet_MediaAndHover(t *testing.T) {
	s, err := ParseStylesheet(sampleStyle)
	if err != nil {
		t.Fatalf("ParseStylesheet() error = %v", err)
	}

	if v, ok := s.MediaDeclared(".nav-container", "flex-wrap", 700); !ok || v != "wrap" {
		t.Errorf("MediaDeclared() at 700 = (%q, %v), want (wrap, true)", v, ok)
	}
	if _, ok := s.MediaDeclared(".nav-container", "flex-wrap", 1400); ok {
		t.Error("MediaDeclared() at 1400 should not match")
	}
	if v, ok := s.DeclaredAt(".nav-container", "flex-wrap", 700); !ok || v != "wrap" {
		t.Errorf("DeclaredAt() at 700 = (%q, %v), want (wrap, true)", v, ok)
	}
	if v, ok := s.HoverDeclared(".btn", "transform"); !ok || v != "scale(1.05)" {
		t.Errorf("HoverDeclared() = (%q, %v), want (scale(1.05), true)", v, ok)
	}
	if !s.HasKeyframes("fadeIn") {
		t.Error("HasKeyframes(fadeIn) = false, want true")
	}
	if !s.HasSelector(".nav-container") {
		t.Error("HasSelector() should see selectors inside @media")
	}
}

func TestNormalizeSelector(t *testing.T) {
	got := []string{
		NormalizeSelector("  .article   p "),
		NormalizeSelector(".nav > .item"),
		NormalizeSelector("h2 +p"),
	}
	want := []string{".article p", ".nav>.item", "h2+p"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeSelector() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStylesheet_Recovery(t *testing.T) {
	type lookup struct {
		selector, property, want string
	}

	tests := []struct {
		name    string
		style   string
		found   []lookup
		missing []lookup
	}{
		{
			name:  "stray closing brace at the end",
			style: "h1 { color: red; } .box { padding: 10px; } }",
			found: []lookup{{"h1", "color", "red"}, {".box", "padding", "10px"}},
		},
		{
			name:    "stray brace swallows the next rule",
			style:   "h1 { color: red; } } .box { padding: 10px; }",
			found:   []lookup{{"h1", "color", "red"}},
			missing: []lookup{{".box", "padding", ""}},
		},
		{
			name:    "valueless declaration drops its rule",
			style:   "h1 { color: red; } .note { color } .intro { color: blue; }",
			found:   []lookup{{"h1", "color", "red"}, {".intro", "color", "blue"}},
			missing: []lookup{{".note", "color", ""}},
		},
		{
			name:    "bad declaration among good ones",
			style:   "p { color; font-size: 16px; : red; background: url(a;b.png); }",
			found:   []lookup{{"p", "font-size", "16px"}, {"p", "background", "url(a;b.png)"}},
			missing: []lookup{{"p", "color", ""}},
		},
		{
			name:  "unterminated comment",
			style: "h1 { color: red; } /* unterminated",
			found: []lookup{{"h1", "color", "red"}},
		},
		{
			name:  "unterminated block",
			style: "h1 { color: red; } .box { padding: 10px; /* unterminated",
			found: []lookup{{"h1", "color", "red"}, {".box", "padding", "10px"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseStylesheet(tt.style)
			if err != nil {
				t.Fatalf("ParseStylesheet() error = %v", err)
			}
			for _, l := range tt.found {
				if got, ok := s.Declared(l.selector, l.property); !ok || got != l.want {
					t.Errorf("Declared(%q, %q) = (%q, %v), want (%q, true)", l.selector, l.property, got, ok, l.want)
				}
			}
			for _, l := range tt.missing {
				if got, ok := s.Declared(l.selector, l.property); ok {
					t.Errorf("Declared(%q, %q) = %q, want not found", l.selector, l.property, got)
				}
			}
		})
	}
}

func TestParseStylesheet_RecoveryInBlocks(t *testing.T) {
	style := `
@keyframes pulse { from { opacity: 0; } to { opacity: 1; } }
@media (max-width: 768px) {
  .nav { flex-wrap: wrap; }
  .x { color }
}
.card:hover { transform: translateY(-5px); }
.broken { color }
`
	s, err := ParseStylesheet(style)
	if err != nil {
		t.Fatalf("ParseStylesheet() error = %v", err)
	}
	if !s.HasKeyframes("pulse") {
		t.Error("HasKeyframes(pulse) = false, want true")
	}
	if v, ok := s.MediaDeclared(".nav", "flex-wrap", 700); !ok || v != "wrap" {
		t.Errorf("MediaDeclared() = (%q, %v), want (wrap, true)", v, ok)
	}
	if v, ok := s.HoverDeclared(".card", "transform"); !ok || v != "translateY(-5px)" {
		t.Errorf("HoverDeclared() = (%q, %v), want (translateY(-5px), true)", v, ok)
	}
}

func TestParseStylesheet_Unrecoverable(t *testing.T) {
	for _, style := range []string{"}", ".note { color }", "p { : red; }", "/* unterminated"} {
		if _, err := ParseStylesheet(style); err == nil {
			t.Errorf("ParseStylesheet(%q) error = nil, want error", style)
		}
	}

	if _, err := ParseStylesheet(""); err != nil {
		t.Errorf("ParseStylesheet(\"\") error = %v, want nil", err)
	}
}
