package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/kitbuilder587/webarch-grader/internal/render"
)

// Styles - вычисленные значения: селектор -> свойство -> значение.
type Styles map[string]map[string]string

// Breakpoint переопределяет стили, когда ширина окна в [MinWidth, MaxWidth].
// MaxWidth == 0 означает без верхней границы.
type Breakpoint struct {
	MinWidth int
	MaxWidth int
	Styles   Styles
	Boxes    map[string]render.Box
}

// Session - сценарная сессия для тестов. Поля заполняются до использования,
// счётчики читаются после.
type Session struct {
	Base        Styles
	Breakpoints []Breakpoint
	Hovered     Styles
	Pseudo      map[string]Styles // pseudo -> стили
	Boxes       map[string]render.Box
	Counts      map[string]int

	// ошибки по имени операции: "Load", "Resize", "ComputedStyle", "Box", "Hover", ...
	Errors map[string]error
	// Panic - операция, на которой сессия паникует
	Panic string

	mu        sync.Mutex
	width     int
	hovered   map[string]bool
	releases  int
	documents []string
	calls     []string
}

func NewSession() *Session {
	return &Session{
		Base:    Styles{},
		Hovered: Styles{},
		Pseudo:  map[string]Styles{},
		Boxes:   map[string]render.Box{},
		Counts:  map[string]int{},
		Errors:  map[string]error{},
		width:   1400,
	}
}

var _ render.Session = (*Session)(nil)

func (s *Session) WithStyle(selector string, props map[string]string) *Session {
	s.Base[selector] = props
	return s
}

func (s *Session) WithBox(selector string, box render.Box) *Session {
	s.Boxes[selector] = box
	return s
}

func (s *Session) WithBreakpoint(bp Breakpoint) *Session {
	s.Breakpoints = append(s.Breakpoints, bp)
	return s
}

func (s *Session) WithHover(selector string, props map[string]string) *Session {
	s.Hovered[selector] = props
	return s
}

// WithPseudo задаёт стили псевдоэлемента, например "::after".
func (s *Session) WithPseudo(selector, pseudo string, props map[string]string) *Session {
	if s.Pseudo[pseudo] == nil {
		s.Pseudo[pseudo] = Styles{}
	}
	s.Pseudo[pseudo][selector] = props
	return s
}

func (s *Session) WithError(op string, err error) *Session {
	s.Errors[op] = err
	return s
}

func (s *Session) enter(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, op)
	if s.releases > 0 {
		return render.ErrSessionClosed
	}
	if s.Panic == op {
		panic(fmt.Sprintf("mock session: injected panic in %s", op))
	}
	return s.Errors[op]
}

func (s *Session) Load(ctx context.Context, document string) error {
	if err := s.enter("Load"); err != nil {
		return err
	}
	s.mu.Lock()
	s.documents = append(s.documents, document)
	s.mu.Unlock()
	return nil
}

func (s *Session) Resize(ctx context.Context, width, height int) error {
	if err := s.enter("Resize"); err != nil {
		return err
	}
	s.mu.Lock()
	s.width = width
	s.mu.Unlock()
	return nil
}

func (s *Session) ComputedStyle(ctx context.Context, selector string, props ...string) (map[string]string, error) {
	if err := s.enter("ComputedStyle"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged, ok := s.resolve(selector)
	if !ok {
		return nil, fmt.Errorf("%w: %s", render.ErrElementNotFound, selector)
	}
	out := make(map[string]string, len(props))
	for _, p := range props {
		out[p] = merged[p]
	}
	return out, nil
}

func (s *Session) PseudoStyle(ctx context.Context, selector, pseudo string, props ...string) (map[string]string, error) {
	if err := s.enter("PseudoStyle"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resolve(selector); !ok {
		return nil, fmt.Errorf("%w: %s", render.ErrElementNotFound, selector)
	}
	out := make(map[string]string, len(props))
	for _, p := range props {
		out[p] = s.Pseudo[pseudo][selector][p]
	}
	return out, nil
}

// resolve накладывает базовые стили, подходящие брейкпоинты и hover. Вызывать под mu.
func (s *Session) resolve(selector string) (map[string]string, bool) {
	merged := map[string]string{}
	found := false
	if base, ok := s.Base[selector]; ok {
		found = true
		for k, v := range base {
			merged[k] = v
		}
	}
	for _, bp := range s.Breakpoints {
		if !bp.contains(s.width) {
			continue
		}
		if over, ok := bp.Styles[selector]; ok {
			found = true
			for k, v := range over {
				merged[k] = v
			}
		}
	}
	if s.hovered[selector] {
		for k, v := range s.Hovered[selector] {
			merged[k] = v
		}
	}
	return merged, found
}

func (bp Breakpoint) contains(width int) bool {
	return width >= bp.MinWidth && (bp.MaxWidth == 0 || width <= bp.MaxWidth)
}

func (s *Session) Box(ctx context.Context, selector string) (render.Box, error) {
	if err := s.enter("Box"); err != nil {
		return render.Box{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.Boxes[selector]
	for _, bp := range s.Breakpoints {
		if b, hit := bp.Boxes[selector]; hit && bp.contains(s.width) {
			box, ok = b, true
		}
	}
	if !ok {
		return render.Box{}, fmt.Errorf("%w: %s", render.ErrElementNotFound, selector)
	}
	return box, nil
}

// Count: явное значение из Counts, иначе 1, если для селектора есть стили или размеры.
func (s *Session) Count(ctx context.Context, selector string) (int, error) {
	if err := s.enter("Count"); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.Counts[selector]; ok {
		return n, nil
	}
	if _, ok := s.resolve(selector); ok {
		return 1, nil
	}
	if _, ok := s.Boxes[selector]; ok {
		return 1, nil
	}
	return 0, nil
}

func (s *Session) Hover(ctx context.Context, selector string) error {
	if err := s.enter("Hover"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resolve(selector); !ok {
		return fmt.Errorf("%w: %s", render.ErrElementNotFound, selector)
	}
	if s.hovered == nil {
		s.hovered = map[string]bool{}
	}
	s.hovered[selector] = true
	return nil
}

func (s *Session) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, "Release")
	s.releases++
	if s.releases > 1 {
		return render.ErrSessionClosed
	}
	return nil
}

func (s *Session) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}

func (s *Session) Documents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.documents...)
}

func (s *Session) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Launcher выдаёт заранее подготовленную сессию, либо новую из Factory на каждый вызов.
type Launcher struct {
	Session *Session
	Factory func() *Session
	Err     error

	mu       sync.Mutex
	acquired int
}

func NewLauncher(s *Session) *Launcher {
	return &Launcher{Session: s}
}

var _ render.Launcher = (*Launcher)(nil)

func (l *Launcher) Acquire(ctx context.Context) (render.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.acquired++
	if l.Err != nil {
		return nil, l.Err
	}
	if l.Factory != nil {
		return l.Factory(), nil
	}
	return l.Session, nil
}

func (l *Launcher) Acquired() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired
}
