package chrome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/kitbuilder587/webarch-grader/internal/render"
)

type Config struct {
	ExecPath        string
	Headless        bool
	Width           int
	Height          int
	PageLoadTimeout time.Duration
	ScriptTimeout   time.Duration
	SessionTimeout  time.Duration
	SettleDelay     time.Duration
}

// Launcher запускает отдельный headless Chrome на каждую сессию.
type Launcher struct {
	cfg    Config
	logger *zap.Logger
}

func NewLauncher(cfg Config, logger *zap.Logger) *Launcher {
	if cfg.Width == 0 {
		cfg.Width = 1400
	}
	if cfg.Height == 0 {
		cfg.Height = 900
	}
	if cfg.PageLoadTimeout == 0 {
		cfg.PageLoadTimeout = 10 * time.Second
	}
	if cfg.ScriptTimeout == 0 {
		cfg.ScriptTimeout = 5 * time.Second
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = time.Minute
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 300 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{cfg: cfg, logger: logger}
}

var _ render.Launcher = (*Launcher)(nil)

func (l *Launcher) Acquire(ctx context.Context) (render.Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(l.cfg.Width, l.cfg.Height),
	)
	if l.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.cfg.ExecPath))
	}

	// браузер не переживёт SessionTimeout, даже если Release так и не вызовут
	base, cancelBase := context.WithTimeout(ctx, l.cfg.SessionTimeout)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(base, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &Session{
		tab: tabCtx,
		cfg: l.cfg,
		cancel: func() {
			cancelTab()
			cancelAlloc()
			cancelBase()
		},
	}

	start := time.Now()
	if err := chromedp.Run(tabCtx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("%w: %v", render.ErrLaunch, err)
	}
	l.logger.Debug("browser session started", zap.Duration("took", time.Since(start)))

	return s, nil
}

type Session struct {
	tab    context.Context
	cancel func()
	cfg    Config

	mu       sync.Mutex
	released bool
}

var _ render.Session = (*Session)(nil)

// run выполняет действия в вкладке с ограничением по времени; отмена ctx вызывающего тоже прерывает.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	s.mu.Lock()
	released := s.released
	s.mu.Unlock()
	if released {
		return render.ErrSessionClosed
	}

	runCtx, cancel := context.WithTimeout(s.tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

const waitLoadedScript = `new Promise(resolve => {
	if (document.readyState === 'complete') { resolve(true); return; }
	window.addEventListener('load', () => resolve(true), { once: true });
})`

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func (s *Session) Load(ctx context.Context, document string) error {
	var loaded bool
	err := s.run(ctx, s.cfg.PageLoadTimeout,
		chromedp.EmulateViewport(int64(s.cfg.Width), int64(s.cfg.Height)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(waitLoadedScript, &loaded, awaitPromise),
		chromedp.Sleep(s.cfg.SettleDelay),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", render.ErrLoad, err)
	}
	return nil
}

func (s *Session) Resize(ctx context.Context, width, height int) error {
	err := s.run(ctx, s.cfg.ScriptTimeout+s.cfg.SettleDelay,
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Sleep(s.cfg.SettleDelay),
	)
	if err != nil {
		return fmt.Errorf("resize to %dx%d: %w", width, height, err)
	}
	return nil
}

type styleResult struct {
	Found  bool              `json:"found"`
	Values map[string]string `json:"values"`
}

const styleScript = `(() => {
	const el = document.querySelector(%s);
	if (!el) return { found: false, values: {} };
	const cs = window.getComputedStyle(el, %s);
	const values = {};
	for (const p of %s) values[p] = cs.getPropertyValue(p).trim();
	return { found: true, values };
})()`

func (s *Session) ComputedStyle(ctx context.Context, selector string, props ...string) (map[string]string, error) {
	return s.style(ctx, selector, "", props)
}

func (s *Session) PseudoStyle(ctx context.Context, selector, pseudo string, props ...string) (map[string]string, error) {
	return s.style(ctx, selector, pseudo, props)
}

func (s *Session) style(ctx context.Context, selector, pseudo string, props []string) (map[string]string, error) {
	pseudoArg := "null"
	if pseudo != "" {
		pseudoArg = jsString(pseudo)
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode props: %w", err)
	}

	var res styleResult
	script := fmt.Sprintf(styleScript, jsString(selector), pseudoArg, propsJSON)
	if err := s.run(ctx, s.cfg.ScriptTimeout, chromedp.Evaluate(script, &res)); err != nil {
		return nil, fmt.Errorf("computed style of %s: %w", selector, err)
	}
	if !res.Found {
		return nil, fmt.Errorf("%w: %s", render.ErrElementNotFound, selector)
	}
	return res.Values, nil
}

const boxScript = `(() => {
	const el = document.querySelector(%s);
	if (!el) return { found: false, width: 0, height: 0 };
	return { found: true, width: el.offsetWidth, height: el.offsetHeight };
})()`

func (s *Session) Box(ctx context.Context, selector string) (render.Box, error) {
	var res struct {
		Found  bool    `json:"found"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := s.run(ctx, s.cfg.ScriptTimeout, chromedp.Evaluate(fmt.Sprintf(boxScript, jsString(selector)), &res)); err != nil {
		return render.Box{}, fmt.Errorf("box of %s: %w", selector, err)
	}
	if !res.Found {
		return render.Box{}, fmt.Errorf("%w: %s", render.ErrElementNotFound, selector)
	}
	return render.Box{Width: res.Width, Height: res.Height}, nil
}

func (s *Session) Count(ctx context.Context, selector string) (int, error) {
	var n int
	script := fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
	if err := s.run(ctx, s.cfg.ScriptTimeout, chromedp.Evaluate(script, &n)); err != nil {
		return 0, fmt.Errorf("count %s: %w", selector, err)
	}
	return n, nil
}

const centerScript = `(() => {
	const el = document.querySelector(%s);
	if (!el) return { found: false, x: 0, y: 0 };
	el.scrollIntoView({ block: 'center', inline: 'center' });
	const r = el.getBoundingClientRect();
	return { found: true, x: r.left + r.width / 2, y: r.top + r.height / 2 };
})()`

// синтетические события на случай, если реального движения мыши не хватило
const hoverEventsScript = `(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	const r = el.getBoundingClientRect();
	const init = { clientX: r.left + r.width / 2, clientY: r.top + r.height / 2 };
	for (const type of ['pointerover', 'pointerenter', 'mouseover', 'mouseenter']) {
		el.dispatchEvent(new MouseEvent(type, { ...init, bubbles: type.endsWith('over') }));
	}
	return true;
})()`

func (s *Session) Hover(ctx context.Context, selector string) error {
	var pt struct {
		Found bool    `json:"found"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	var dispatched bool

	err := s.run(ctx, s.cfg.ScriptTimeout+s.cfg.SettleDelay,
		chromedp.Evaluate(fmt.Sprintf(centerScript, jsString(selector)), &pt),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if !pt.Found {
				return fmt.Errorf("%w: %s", render.ErrElementNotFound, selector)
			}
			return input.DispatchMouseEvent(input.MouseMoved, pt.X, pt.Y).Do(ctx)
		}),
		chromedp.Evaluate(fmt.Sprintf(hoverEventsScript, jsString(selector)), &dispatched),
		chromedp.Sleep(s.cfg.SettleDelay),
	)
	if err != nil {
		return fmt.Errorf("hover %s: %w", selector, err)
	}
	return nil
}

func (s *Session) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return render.ErrSessionClosed
	}
	s.released = true

	err := chromedp.Cancel(s.tab)
	s.cancel()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("release browser: %w", err)
	}
	return nil
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
