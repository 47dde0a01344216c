package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/webarch-grader/internal/analyzer"
	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/render"
)

// call - состояние одного вызова Validate.
type call struct {
	req    domain.ValidationRequest
	rubric *domain.Rubric
	engine *Engine
}

// guard ловит панику внутри проверки и превращает её в check-error.
func (c *call) guard(ctx context.Context, fn routine) (res domain.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			res = c.engine.checkFault(c.rubric.ID, fmt.Errorf("panic: %v", r))
		}
	}()
	return fn(ctx, c)
}

// fault классифицирует ошибку, возникшую во время проверки.
func (c *call) fault(err error) domain.ValidationResult {
	if errors.Is(err, render.ErrElementNotFound) {
		return domain.Failed(domain.ErrorElementMissing, c.engine.truncate("required element not found: "+err.Error()))
	}
	return c.engine.checkFault(c.rubric.ID, err)
}

// withSession берёт новую сессию, загружает синтезированный документ и вызывает fn.
// Release вызывается ровно один раз на любом пути выхода, включая панику.
func (c *call) withSession(ctx context.Context, fn func(render.Session) domain.ValidationResult) (res domain.ValidationResult) {
	e := c.engine
	if e.browser == nil {
		return domain.Failed(domain.ErrorEnvironment, "rendering environment is not configured")
	}

	start := time.Now()
	sess, err := e.browser.Acquire(ctx)
	if err != nil {
		e.logger.Warn("render session acquire failed", zap.String("exercise_id", c.rubric.ID), zap.Error(err))
		if e.metrics != nil {
			e.metrics.RecordSessionFailure("acquire")
		}
		return domain.Failed(domain.ErrorEnvironment, "rendering environment failed to start, please retry")
	}
	if e.metrics != nil {
		e.metrics.RecordSessionAcquire(time.Since(start))
		e.metrics.IncSessionsInFlight()
	}

	defer func() {
		if r := recover(); r != nil {
			res = e.checkFault(c.rubric.ID, fmt.Errorf("panic: %v", r))
		}
		if err := sess.Release(); err != nil {
			e.logger.Warn("render session release failed", zap.String("exercise_id", c.rubric.ID), zap.Error(err))
		}
		if e.metrics != nil {
			e.metrics.DecSessionsInFlight()
		}
	}()

	if err := sess.Load(ctx, render.Document(c.req.Markup, c.req.Style)); err != nil {
		e.logger.Warn("document load failed", zap.String("exercise_id", c.rubric.ID), zap.Error(err))
		if e.metrics != nil {
			e.metrics.RecordSessionFailure("load")
		}
		return domain.Failed(domain.ErrorEnvironment, e.truncate("rendering environment failed to load the page: "+err.Error()))
	}

	return fn(sess)
}

// stylesheet разбирает стили ученика; ошибка разбора - это ошибка пользователя, а не сбой.
func (c *call) stylesheet() (*analyzer.Stylesheet, *domain.ValidationResult) {
	sheet, err := analyzer.ParseStylesheet(c.req.Style)
	if err != nil {
		res := domain.Failed(domain.ErrorStyleSyntax, c.engine.truncate("stylesheet could not be parsed: "+err.Error()))
		return nil, &res
	}
	return sheet, nil
}

func (c *call) passMessage(fallback string) string {
	if c.rubric.PassMessage != "" {
		return c.rubric.PassMessage
	}
	return fallback
}

func (c *call) viewport() (int, int) {
	return c.engine.config.ViewportWidth, c.engine.config.ViewportHeight
}

func violation(rule string, errType domain.ErrorType, format string, args ...any) *domain.Finding {
	return &domain.Finding{
		Rule:      rule,
		Severity:  domain.SeverityError,
		ErrorType: errType,
		Message:   fmt.Sprintf(format, args...),
	}
}

// step - одна проверка в цепочке fail-fast: находка при нарушении, ошибка при сбое.
type step func(ctx context.Context) (*domain.Finding, error)

// failFast останавливается на первом нарушении: балл 0 и тег нарушенного правила.
// Если всё прошло - фиксированный балл уровня.
func (c *call) failFast(ctx context.Context, steps ...step) domain.ValidationResult {
	for _, st := range steps {
		f, err := st(ctx)
		if err != nil {
			return c.fault(err)
		}
		if f != nil {
			return verdict(f, c.rubric.PassScore, "")
		}
	}
	return domain.Passed(c.rubric.PassScore, c.passMessage("all checks passed"))
}

func verdict(f *domain.Finding, passScore int, passMsg string) domain.ValidationResult {
	if f == nil {
		return domain.Passed(passScore, passMsg)
	}
	res := domain.Failed(f.ErrorType, f.Message)
	res.Findings = []domain.Finding{*f}
	return res
}

// scorecard копит нарушения для накопительных проверок: штраф за каждое, не ниже нуля.
type scorecard struct {
	total     int
	deduction int
	findings  []domain.Finding
	failed    int
}

func newScorecard(total, deduction int) *scorecard {
	return &scorecard{total: total, deduction: deduction}
}

func (s *scorecard) fail(rule string, errType domain.ErrorType, format string, args ...any) {
	s.findings = append(s.findings, domain.Finding{
		Rule:      rule,
		Severity:  domain.SeverityError,
		ErrorType: errType,
		Message:   fmt.Sprintf(format, args...),
		Deduction: s.deduction,
	})
	s.failed++
}

func (s *scorecard) tip(rule string, format string, args ...any) {
	s.findings = append(s.findings, domain.Finding{
		Rule:     rule,
		Severity: domain.SeverityTip,
		Message:  fmt.Sprintf(format, args...),
	})
}

// result: тег первого нарушения, сообщения нарушений через " | ", подсказки в конце.
func (s *scorecard) result(passMsg string) domain.ValidationResult {
	var errs, tips []string
	var first domain.ErrorType
	for _, f := range s.findings {
		if f.Severity == domain.SeverityTip {
			tips = append(tips, "tip: "+f.Message)
			continue
		}
		if first == domain.ErrorNone {
			first = f.ErrorType
		}
		errs = append(errs, f.Message)
	}

	score := s.total - s.failed*s.deduction
	if score < 0 {
		score = 0
	}

	res := domain.ValidationResult{Findings: s.findings}
	if s.failed == 0 {
		res.Passed = true
		res.Score = s.total
		res.Message = strings.Join(append([]string{passMsg}, tips...), " | ")
		return res
	}
	res.Score = score
	res.ErrorType = first
	res.Message = strings.Join(append(errs, tips...), " | ")
	return res
}
