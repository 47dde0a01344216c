package render

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrLaunch          = errors.New("browser launch failed")
	ErrLoad            = errors.New("document load failed")
	ErrElementNotFound = errors.New("element not found")
	ErrSessionClosed   = errors.New("session already released")
)

// Box - размеры элемента после раскладки (offsetWidth/offsetHeight).
type Box struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Session - один изолированный экземпляр браузера на время одной проверки.
// Сессия не разделяется между запросами и освобождается через Release ровно один раз.
type Session interface {
	Load(ctx context.Context, document string) error
	Resize(ctx context.Context, width, height int) error

	// ComputedStyle возвращает вычисленные значения свойств первого элемента по селектору.
	// Если элемента нет - ErrElementNotFound.
	ComputedStyle(ctx context.Context, selector string, props ...string) (map[string]string, error)
	PseudoStyle(ctx context.Context, selector, pseudo string, props ...string) (map[string]string, error)
	Box(ctx context.Context, selector string) (Box, error)
	Count(ctx context.Context, selector string) (int, error)

	// Hover наводит указатель на элемент, шлёт синтетические pointer/mouse события
	// и ждёт, пока стили устоятся.
	Hover(ctx context.Context, selector string) error

	Release() error
}

// Launcher создаёт новые сессии. Реализации не хранят состояние между вызовами,
// кроме конфигурации.
type Launcher interface {
	Acquire(ctx context.Context) (Session, error)
}

const documentTemplate = `<!DOCTYPE html><html lang="en"><head><meta charset="UTF-8">` +
	`<meta name="viewport" content="width=device-width, initial-scale=1.0">` +
	`<style>%STYLE%</style></head><body>%MARKUP%</body></html>`

// Document собирает страницу из разметки ученика и его стилей.
// Закрывающий </style внутри стилей экранируется, чтобы стили не вылезли в разметку.
func Document(markup, style string) string {
	style = strings.ReplaceAll(style, "</style", `<\/style`)
	style = strings.ReplaceAll(style, "</STYLE", `<\/STYLE`)
	r := strings.NewReplacer("%STYLE%", style, "%MARKUP%", markup)
	return r.Replace(documentTemplate)
}
