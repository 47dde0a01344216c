package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// CheckKind выбирает проверочную процедуру внутри стадии.
type CheckKind string

const (
	CheckStructure CheckKind = "structure"
	CheckChoice    CheckKind = "choice"

	CheckSelectorRules CheckKind = "selector-rules"
	CheckBoxModel      CheckKind = "box-model"
	CheckDragMatch     CheckKind = "drag-match"
	CheckTypography    CheckKind = "typography"

	CheckFlexNav      CheckKind = "flex-nav"
	CheckGridCards    CheckKind = "grid-cards"
	CheckFloatArticle CheckKind = "float-article"

	CheckResponsiveLayout CheckKind = "responsive-layout"
	CheckVisualPolish     CheckKind = "visual-polish"
	CheckCapstone         CheckKind = "capstone"
)

func (k CheckKind) Stage() int {
	switch k {
	case CheckStructure, CheckChoice:
		return 1
	case CheckSelectorRules, CheckBoxModel, CheckDragMatch, CheckTypography:
		return 2
	case CheckFlexNav, CheckGridCards, CheckFloatArticle:
		return 3
	case CheckResponsiveLayout, CheckVisualPolish, CheckCapstone:
		return 4
	}
	return 0
}

func (k CheckKind) IsValid() bool { return k.Stage() > 0 }

func (k CheckKind) String() string { return string(k) }

// Rubric - ожидания для одного упражнения. Заполнена ровно одна секция,
// соответствующая Kind.
type Rubric struct {
	ID            string    `json:"id" yaml:"id"`
	Kind          CheckKind `json:"kind" yaml:"kind"`
	Topic         string    `json:"topic,omitempty" yaml:"topic,omitempty"`
	PassScore     int       `json:"pass_score" yaml:"pass_score"`
	Deduction     int       `json:"deduction,omitempty" yaml:"deduction,omitempty"`
	PassThreshold int       `json:"pass_threshold,omitempty" yaml:"pass_threshold,omitempty"`
	PassMessage   string    `json:"pass_message,omitempty" yaml:"pass_message,omitempty"`

	Structure  *StructureRubric  `json:"structure,omitempty" yaml:"structure,omitempty"`
	Choice     *ChoiceRubric     `json:"choice,omitempty" yaml:"choice,omitempty"`
	Selectors  []SelectorRule    `json:"selectors,omitempty" yaml:"selectors,omitempty"`
	BoxModel   *BoxModelRubric   `json:"box_model,omitempty" yaml:"box_model,omitempty"`
	Drag       *DragRubric       `json:"drag,omitempty" yaml:"drag,omitempty"`
	Typography *TypographyRubric `json:"typography,omitempty" yaml:"typography,omitempty"`
	Flex       *FlexRubric       `json:"flex,omitempty" yaml:"flex,omitempty"`
	Grid       *GridRubric       `json:"grid,omitempty" yaml:"grid,omitempty"`
	Float      *FloatRubric      `json:"float,omitempty" yaml:"float,omitempty"`
	Responsive *ResponsiveRubric `json:"responsive,omitempty" yaml:"responsive,omitempty"`
	Polish     *PolishRubric     `json:"polish,omitempty" yaml:"polish,omitempty"`
	Capstone   *CapstoneRubric   `json:"capstone,omitempty" yaml:"capstone,omitempty"`
}

type StructureRubric struct {
	RequireDoctype   bool            `json:"require_doctype,omitempty" yaml:"require_doctype,omitempty"`
	RootTags         []string        `json:"root_tags,omitempty" yaml:"root_tags,omitempty"`
	Nesting          []NestingRule   `json:"nesting,omitempty" yaml:"nesting,omitempty"`
	SemanticTags     []string        `json:"semantic_tags,omitempty" yaml:"semantic_tags,omitempty"`
	ForbiddenMarkers []MarkerRule    `json:"forbidden_markers,omitempty" yaml:"forbidden_markers,omitempty"`
	Exclusions       []ExclusionRule `json:"exclusions,omitempty" yaml:"exclusions,omitempty"`
	Headings         []HeadingRule   `json:"headings,omitempty" yaml:"headings,omitempty"`
	ParagraphText    string          `json:"paragraph_text,omitempty" yaml:"paragraph_text,omitempty"`
	Media            []MediaRule     `json:"media,omitempty" yaml:"media,omitempty"`
}

type NestingRule struct {
	Parent   string   `json:"parent" yaml:"parent"`
	Children []string `json:"children" yaml:"children"`
}

// MarkerRule - устаревший контейнер, например div с class="header".
type MarkerRule struct {
	Tag   string `json:"tag" yaml:"tag"`
	Attr  string `json:"attr" yaml:"attr"`
	Value string `json:"value" yaml:"value"`
}

type ExclusionRule struct {
	Tag       string   `json:"tag" yaml:"tag"`
	NotInside []string `json:"not_inside" yaml:"not_inside"`
}

// HeadingRule: Count > 0 требует точное количество, Min - нижнюю границу.
type HeadingRule struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count,omitempty" yaml:"count,omitempty"`
	Min   int    `json:"min,omitempty" yaml:"min,omitempty"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
}

type AttrRule struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

type MediaRule struct {
	Tag   string     `json:"tag" yaml:"tag"`
	Attrs []AttrRule `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Text  string     `json:"text,omitempty" yaml:"text,omitempty"`
}

type ChoiceRubric struct {
	Answer      string `json:"answer" yaml:"answer"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// SelectorRule - ожидаемое объявление. Пустой Property проверяет только наличие селектора.
type SelectorRule struct {
	Selector string `json:"selector" yaml:"selector"`
	Property string `json:"property,omitempty" yaml:"property,omitempty"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
	Hint     string `json:"hint,omitempty" yaml:"hint,omitempty"`
}

type BoxModelRubric struct {
	Target       string        `json:"target" yaml:"target"`
	BoxSizing    string        `json:"box_sizing" yaml:"box_sizing"`
	Padding      float64       `json:"padding" yaml:"padding"`
	BorderWidth  float64       `json:"border_width" yaml:"border_width"`
	BorderStyle  string        `json:"border_style" yaml:"border_style"`
	BorderColor  string        `json:"border_color" yaml:"border_color"`
	MarginRight  float64       `json:"margin_right" yaml:"margin_right"`
	MarginBottom float64       `json:"margin_bottom" yaml:"margin_bottom"`
	Width        float64       `json:"width" yaml:"width"`
	Tolerance    float64       `json:"tolerance" yaml:"tolerance"`
	Tip          *SelectorRule `json:"tip,omitempty" yaml:"tip,omitempty"`
}

type DragPair struct {
	Target string `json:"target" yaml:"target"`
	Item   string `json:"item" yaml:"item"`
}

type DragRubric struct {
	Pairs   []DragPair `json:"pairs" yaml:"pairs"`
	Total   int        `json:"total" yaml:"total"`
	Penalty int        `json:"penalty" yaml:"penalty"`
}

type TypographyRubric struct {
	Scope   string          `json:"scope" yaml:"scope"`
	Targets []TextStyleRule `json:"targets" yaml:"targets"`
}

// TextStyleRule: пустые поля не проверяются. LineHeight - безразмерный коэффициент.
type TextStyleRule struct {
	Selector       string  `json:"selector" yaml:"selector"`
	TextAlign      string  `json:"text_align,omitempty" yaml:"text_align,omitempty"`
	Color          string  `json:"color,omitempty" yaml:"color,omitempty"`
	FontSize       float64 `json:"font_size,omitempty" yaml:"font_size,omitempty"`
	LineHeight     float64 `json:"line_height,omitempty" yaml:"line_height,omitempty"`
	TextDecoration string  `json:"text_decoration,omitempty" yaml:"text_decoration,omitempty"`
	HoverColor     string  `json:"hover_color,omitempty" yaml:"hover_color,omitempty"`
	Tolerance      float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
}

type Breakpoint struct {
	Name    string `json:"name" yaml:"name"`
	Width   int    `json:"width" yaml:"width"`
	Columns int    `json:"columns" yaml:"columns"`
}

type FlexRubric struct {
	Container      string  `json:"container" yaml:"container"`
	Items          string  `json:"items" yaml:"items"`
	JustifyContent string  `json:"justify_content" yaml:"justify_content"`
	AlignItems     string  `json:"align_items" yaml:"align_items"`
	Gap            float64 `json:"gap" yaml:"gap"`
	GapTolerance   float64 `json:"gap_tolerance" yaml:"gap_tolerance"`
	MobileWidth    int     `json:"mobile_width" yaml:"mobile_width"`
	Wrap           string  `json:"wrap" yaml:"wrap"`
}

type GridRubric struct {
	Container    string       `json:"container" yaml:"container"`
	AlignItems   string       `json:"align_items" yaml:"align_items"`
	Gap          float64      `json:"gap" yaml:"gap"`
	GapTolerance float64      `json:"gap_tolerance" yaml:"gap_tolerance"`
	Breakpoints  []Breakpoint `json:"breakpoints" yaml:"breakpoints"`
}

type FloatRubric struct {
	Image       string  `json:"image" yaml:"image"`
	Container   string  `json:"container" yaml:"container"`
	Float       string  `json:"float" yaml:"float"`
	Width       float64 `json:"width" yaml:"width"`
	MarginRight float64 `json:"margin_right" yaml:"margin_right"`
	Tolerance   float64 `json:"tolerance" yaml:"tolerance"`
	ClearMargin float64 `json:"clear_margin" yaml:"clear_margin"`
}

// HoverRule - ожидаемое состояние элемента под курсором. Nil-поля не проверяются.
// Tolerance в px для сдвига, ScaleTolerance для масштаба.
type HoverRule struct {
	Selector        string   `json:"selector" yaml:"selector"`
	TranslateY      *float64 `json:"translate_y,omitempty" yaml:"translate_y,omitempty"`
	Scale           *float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	BackgroundColor string   `json:"background_color,omitempty" yaml:"background_color,omitempty"`
	Color           string   `json:"color,omitempty" yaml:"color,omitempty"`
	Tolerance       float64  `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	ScaleTolerance  float64  `json:"scale_tolerance,omitempty" yaml:"scale_tolerance,omitempty"`
}

type ResponsiveRubric struct {
	Layout       string       `json:"layout" yaml:"layout"`
	Breakpoints  []Breakpoint `json:"breakpoints" yaml:"breakpoints"`
	List         string       `json:"list" yaml:"list"`
	Wrap         string       `json:"wrap" yaml:"wrap"`
	Gap          float64      `json:"gap" yaml:"gap"`
	GapTolerance float64      `json:"gap_tolerance" yaml:"gap_tolerance"`
	Hover        HoverRule    `json:"hover" yaml:"hover"`
	Elements     []string     `json:"elements,omitempty" yaml:"elements,omitempty"`
}

type PolishRubric struct {
	Button             string    `json:"button" yaml:"button"`
	BorderRadius       float64   `json:"border_radius" yaml:"border_radius"`
	RadiusTolerance    float64   `json:"radius_tolerance" yaml:"radius_tolerance"`
	RequireShadow      bool      `json:"require_shadow,omitempty" yaml:"require_shadow,omitempty"`
	TransitionProperty string    `json:"transition_property,omitempty" yaml:"transition_property,omitempty"`
	Hover              HoverRule `json:"hover" yaml:"hover"`
	Animated           string    `json:"animated,omitempty" yaml:"animated,omitempty"`
	Keyframes          string    `json:"keyframes,omitempty" yaml:"keyframes,omitempty"`
}

type CapstoneRubric struct {
	Structure   StructureDimension   `json:"structure" yaml:"structure"`
	Layout      LayoutDimension      `json:"layout" yaml:"layout"`
	Responsive  ResponsiveDimension  `json:"responsive" yaml:"responsive"`
	Polish      PolishDimension      `json:"polish" yaml:"polish"`
	Readability ReadabilityDimension `json:"readability" yaml:"readability"`
}

// Budget - сумма баллов всех измерений.
func (c *CapstoneRubric) Budget() int {
	return c.Structure.Points + c.Layout.Points + c.Responsive.Points + c.Polish.Points + c.Readability.Points
}

type StructureDimension struct {
	Points int      `json:"points" yaml:"points"`
	Tags   []string `json:"tags" yaml:"tags"`
}

type LayoutDimension struct {
	Points   int    `json:"points" yaml:"points"`
	Flex     string `json:"flex" yaml:"flex"`
	Grid     string `json:"grid" yaml:"grid"`
	Centered string `json:"centered" yaml:"centered"`
}

// ResponsiveDimension: на десктопе колонок не меньше Desktop.Columns,
// на мобильном ровно Mobile.Columns.
type ResponsiveDimension struct {
	Points  int        `json:"points" yaml:"points"`
	Target  string     `json:"target" yaml:"target"`
	Desktop Breakpoint `json:"desktop" yaml:"desktop"`
	Mobile  Breakpoint `json:"mobile" yaml:"mobile"`
}

type PolishDimension struct {
	Points   int      `json:"points" yaml:"points"`
	Hover    string   `json:"hover" yaml:"hover"`
	Animated []string `json:"animated" yaml:"animated"`
}

type ReadabilityDimension struct {
	Points        int     `json:"points" yaml:"points"`
	Target        string  `json:"target" yaml:"target"`
	MinFontSize   float64 `json:"min_font_size" yaml:"min_font_size"`
	MaxFontSize   float64 `json:"max_font_size" yaml:"max_font_size"`
	MinLineHeight float64 `json:"min_line_height" yaml:"min_line_height"`
	MaxLineHeight float64 `json:"max_line_height" yaml:"max_line_height"`
}

// StagePrefix - часть id до первого дефиса.
func (r *Rubric) StagePrefix() string {
	if i := strings.IndexByte(r.ID, '-'); i > 0 {
		return r.ID[:i]
	}
	return ""
}

// Validate проверяет согласованность рубрики: вид проверки, стадию и нужную секцию.
func (r *Rubric) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: %v", ErrInvalidRubric, ErrEmptyExerciseID)
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: %s: %q", ErrUnknownCheckKind, r.ID, r.Kind)
	}
	stage, err := strconv.Atoi(r.StagePrefix())
	if err != nil || stage != r.Kind.Stage() {
		return fmt.Errorf("%w: %s is %s", ErrStageMismatch, r.ID, r.Kind)
	}

	missing := ""
	switch r.Kind {
	case CheckStructure:
		if r.Structure == nil {
			missing = "structure"
		}
	case CheckChoice:
		if r.Choice == nil {
			missing = "choice"
		}
	case CheckSelectorRules:
		if len(r.Selectors) == 0 {
			missing = "selectors"
		}
	case CheckBoxModel:
		if r.BoxModel == nil {
			missing = "box_model"
		}
	case CheckDragMatch:
		if r.Drag == nil || len(r.Drag.Pairs) == 0 {
			missing = "drag"
		}
	case CheckTypography:
		if r.Typography == nil || len(r.Typography.Targets) == 0 {
			missing = "typography"
		}
	case CheckFlexNav:
		if r.Flex == nil {
			missing = "flex"
		}
	case CheckGridCards:
		if r.Grid == nil || len(r.Grid.Breakpoints) == 0 {
			missing = "grid"
		}
	case CheckFloatArticle:
		if r.Float == nil {
			missing = "float"
		}
	case CheckResponsiveLayout:
		if r.Responsive == nil {
			missing = "responsive"
		}
	case CheckVisualPolish:
		if r.Polish == nil {
			missing = "polish"
		}
	case CheckCapstone:
		if r.Capstone == nil {
			missing = "capstone"
		}
	}
	if missing != "" {
		return fmt.Errorf("%w: %s needs %s", ErrMissingRubricPart, r.ID, missing)
	}

	if r.Kind == CheckCapstone {
		if b := r.Capstone.Budget(); b != 100 {
			return fmt.Errorf("%w: %s dimension budgets sum to %d, want 100", ErrInvalidRubric, r.ID, b)
		}
		return nil
	}
	if r.PassScore <= 0 || r.PassScore > 100 {
		return fmt.Errorf("%w: %s pass score %d", ErrInvalidRubric, r.ID, r.PassScore)
	}
	return nil
}

// Threshold - проходной балл взвешенной проверки, по умолчанию 60.
func (r *Rubric) Threshold() int {
	if r.PassThreshold > 0 {
		return r.PassThreshold
	}
	return 60
}

// DeductionFor - штраф за одно нарушение при накопительной проверке.
// Если в рубрике не задан, делим PassScore поровну между n проверками (с округлением вверх).
func (r *Rubric) DeductionFor(n int) int {
	if r.Deduction > 0 {
		return r.Deduction
	}
	if n <= 0 {
		return r.PassScore
	}
	return (r.PassScore + n - 1) / n
}
