package domain

// ErrorType - тег причины провала проверки. Пустое значение означает успех.
type ErrorType string

const ErrorNone ErrorType = ""

// общие для всех стадий
const (
	ErrorSystem         ErrorType = "system-error"
	ErrorEnvironment    ErrorType = "environment-error"
	ErrorCheck          ErrorType = "check-error"
	ErrorElementMissing ErrorType = "element-missing"
	ErrorStyleSyntax    ErrorType = "style-syntax"
)

// stage 1: структура документа
const (
	ErrorDoctypeMissing   ErrorType = "doctype-missing"
	ErrorTagMissing       ErrorType = "tag-missing"
	ErrorTagUnclosed      ErrorType = "tag-unclosed"
	ErrorNestingInvalid   ErrorType = "nesting-invalid"
	ErrorSemanticMissing  ErrorType = "semantic-missing"
	ErrorLegacyContainer  ErrorType = "legacy-container"
	ErrorSemanticNesting  ErrorType = "semantic-nesting"
	ErrorHeadingInvalid   ErrorType = "heading-invalid"
	ErrorParagraphInvalid ErrorType = "paragraph-invalid"
	ErrorMediaInvalid     ErrorType = "media-invalid"
	ErrorAnswerMissing    ErrorType = "answer-missing"
	ErrorAnswerWrong      ErrorType = "answer-wrong"
)

// stage 2: правила стилей
const (
	ErrorSelectorMissing     ErrorType = "selector-missing"
	ErrorDeclarationMismatch ErrorType = "declaration-mismatch"
	ErrorBoxModel            ErrorType = "box-model-invalid"
	ErrorMatchPayload        ErrorType = "match-payload-invalid"
	ErrorMatchWrong          ErrorType = "match-wrong"
	ErrorTypography          ErrorType = "typography-invalid"
)

// stage 3: раскладка
const (
	ErrorDisplayInvalid   ErrorType = "display-invalid"
	ErrorAlignmentInvalid ErrorType = "alignment-invalid"
	ErrorSpacingInvalid   ErrorType = "spacing-invalid"
	ErrorWrapMissing      ErrorType = "wrap-missing"
	ErrorColumnsInvalid   ErrorType = "columns-invalid"
	ErrorFloatInvalid     ErrorType = "float-invalid"
	ErrorSizeInvalid      ErrorType = "size-invalid"
	ErrorFloatNotCleared  ErrorType = "float-not-cleared"
)

// stage 4: проекты
const (
	ErrorHoverMissing      ErrorType = "hover-missing"
	ErrorDecorationInvalid ErrorType = "decoration-invalid"
	ErrorTransitionMissing ErrorType = "transition-missing"
	ErrorAnimationMissing  ErrorType = "animation-missing"
	ErrorProjectIncomplete ErrorType = "project-incomplete"
)

// Stage возвращает стадию, к которой относится тег; 0 для общих тегов.
// Неизвестный тег даёт -1.
func (e ErrorType) Stage() int {
	switch e {
	case ErrorNone, ErrorSystem, ErrorEnvironment, ErrorCheck, ErrorElementMissing, ErrorStyleSyntax:
		return 0
	case ErrorDoctypeMissing, ErrorTagMissing, ErrorTagUnclosed, ErrorNestingInvalid,
		ErrorSemanticMissing, ErrorLegacyContainer, ErrorSemanticNesting, ErrorHeadingInvalid,
		ErrorParagraphInvalid, ErrorMediaInvalid, ErrorAnswerMissing, ErrorAnswerWrong:
		return 1
	case ErrorSelectorMissing, ErrorDeclarationMismatch, ErrorBoxModel, ErrorMatchPayload,
		ErrorMatchWrong, ErrorTypography:
		return 2
	case ErrorDisplayInvalid, ErrorAlignmentInvalid, ErrorSpacingInvalid, ErrorWrapMissing,
		ErrorColumnsInvalid, ErrorFloatInvalid, ErrorSizeInvalid, ErrorFloatNotCleared:
		return 3
	case ErrorHoverMissing, ErrorDecorationInvalid, ErrorTransitionMissing, ErrorAnimationMissing,
		ErrorProjectIncomplete:
		return 4
	}
	return -1
}

func (e ErrorType) IsValid() bool { return e.Stage() >= 0 }

func (e ErrorType) String() string {
	if e == ErrorNone {
		return "none"
	}
	return string(e)
}
