package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/metrics"
	"github.com/kitbuilder587/webarch-grader/internal/render"
)

const msgInvalidExercise = "invalid exercise id"

// RubricSource отдаёт рубрику по id упражнения или domain.ErrRubricNotFound.
type RubricSource interface {
	Rubric(ctx context.Context, exerciseID string) (*domain.Rubric, error)
}

type Config struct {
	ViewportWidth  int
	ViewportHeight int
	// MessageLimit - максимальная длина диагностики для check-error, в рунах
	MessageLimit int
	// DisableStaticHoverOracle оставляет для hover-проверок только отрисованное состояние
	DisableStaticHoverOracle bool
}

type Deps struct {
	Rubrics RubricSource
	Browser render.Launcher
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Config  Config
}

// Engine - диспетчер проверок. Состояния между вызовами не хранит,
// каждый вызов с рендерингом получает свою сессию браузера.
type Engine struct {
	rubrics RubricSource
	browser render.Launcher
	logger  *zap.Logger
	metrics *metrics.Metrics
	config  Config
}

func New(deps Deps) *Engine {
	if deps.Config.ViewportWidth == 0 {
		deps.Config.ViewportWidth = 1400
	}
	if deps.Config.ViewportHeight == 0 {
		deps.Config.ViewportHeight = 900
	}
	if deps.Config.MessageLimit == 0 {
		deps.Config.MessageLimit = 100
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Engine{
		rubrics: deps.Rubrics,
		browser: deps.Browser,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		config:  deps.Config,
	}
}

type routine func(ctx context.Context, c *call) domain.ValidationResult

// stages: префикс id -> вид проверки из рубрики -> процедура.
var stages = map[string]map[domain.CheckKind]routine{
	"1": {
		domain.CheckStructure: checkStructure,
		domain.CheckChoice:    checkChoice,
	},
	"2": {
		domain.CheckSelectorRules: checkSelectorRules,
		domain.CheckBoxModel:      checkBoxModel,
		domain.CheckDragMatch:     checkDragMatch,
		domain.CheckTypography:    checkTypography,
	},
	"3": {
		domain.CheckFlexNav:      checkFlexNav,
		domain.CheckGridCards:    checkGridCards,
		domain.CheckFloatArticle: checkFloatArticle,
	},
	"4": {
		domain.CheckResponsiveLayout: checkResponsiveLayout,
		domain.CheckVisualPolish:     checkVisualPolish,
		domain.CheckCapstone:         checkCapstone,
	},
}

// Validate никогда не возвращает ошибку: любой сбой превращается в результат
// с тегом system-error, environment-error или check-error.
func (e *Engine) Validate(ctx context.Context, req domain.ValidationRequest) (res domain.ValidationResult) {
	start := time.Now()
	stage := req.Stage()
	exerciseID := strings.TrimSpace(req.ExerciseID)

	defer func() {
		outcome := "passed"
		if !res.Passed {
			outcome = res.ErrorType.String()
		}
		if e.metrics != nil {
			e.metrics.RecordValidation(stage, outcome, time.Since(start))
		}
		e.logger.Info("validation finished",
			zap.String("exercise_id", exerciseID),
			zap.Bool("passed", res.Passed),
			zap.Int("score", res.Score),
			zap.String("error_type", res.ErrorType.String()),
			zap.Duration("took", time.Since(start)),
		)
	}()

	routines, ok := stages[stage]
	if !ok {
		return domain.Failed(domain.ErrorSystem, msgInvalidExercise)
	}

	rubric, err := e.rubrics.Rubric(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, domain.ErrRubricNotFound) {
			return domain.Failed(domain.ErrorSystem, msgInvalidExercise)
		}
		e.logger.Warn("rubric lookup failed", zap.String("exercise_id", exerciseID), zap.Error(err))
		return domain.Failed(domain.ErrorEnvironment, e.truncate("rubric store unavailable: "+err.Error()))
	}

	fn, ok := routines[rubric.Kind]
	if !ok {
		e.logger.Debug("check kind not served by stage",
			zap.String("exercise_id", exerciseID),
			zap.String("kind", rubric.Kind.String()),
		)
		return domain.Failed(domain.ErrorSystem, msgInvalidExercise)
	}

	e.logger.Debug("dispatching",
		zap.String("exercise_id", exerciseID),
		zap.String("stage", stage),
		zap.String("kind", rubric.Kind.String()),
	)

	c := &call{req: req, rubric: rubric, engine: e}
	return c.guard(ctx, fn)
}

func (e *Engine) truncate(msg string) string {
	r := []rune(msg)
	if len(r) <= e.config.MessageLimit {
		return msg
	}
	return string(r[:e.config.MessageLimit])
}

func (e *Engine) checkFault(exerciseID string, err error) domain.ValidationResult {
	e.logger.Error("check failed internally", zap.String("exercise_id", exerciseID), zap.Error(err))
	if e.metrics != nil {
		e.metrics.RecordCheckFault(exerciseID)
	}
	return domain.Failed(domain.ErrorCheck, e.truncate(fmt.Sprintf("check error: %v", err)))
}
