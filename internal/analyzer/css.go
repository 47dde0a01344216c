package analyzer

import (
	"fmt"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Rule - плоское правило: селекторы, объемлющий @media (пусто, если нет) и объявления.
type Rule struct {
	Selectors    []string
	Media        string
	Declarations []Declaration
}

func (r Rule) matches(selector string) bool {
	for _, s := range r.Selectors {
		if s == selector {
			return true
		}
	}
	return false
}

// Stylesheet - таблица стилей в порядке исходника, вложенные @media развёрнуты.
type Stylesheet struct {
	Rules     []Rule
	Keyframes []string
}

// ParseStylesheet разбирает стили ученика. Синтаксическая ошибка отбрасывает только
// своё правило или объявление; ошибка возвращается, если не удалось спасти ни одного правила.
func ParseStylesheet(text string) (*Stylesheet, error) {
	s := &Stylesheet{}
	sheet, err := parser.Parse(text)
	if err == nil {
		s.collect(sheet.Rules, "")
		return s, nil
	}

	rules := recoverRules(text)
	if len(rules) == 0 {
		return nil, fmt.Errorf("parse stylesheet: %w", err)
	}
	s.collect(rules, "")
	return s, nil
}

func (s *Stylesheet) collect(rules []*css.Rule, media string) {
	for _, r := range rules {
		if r.Kind == css.QualifiedRule {
			rule := Rule{Media: media}
			for _, sel := range r.Selectors {
				rule.Selectors = append(rule.Selectors, NormalizeSelector(sel))
			}
			for _, d := range r.Declarations {
				rule.Declarations = append(rule.Declarations, Declaration{
					Property:  strings.ToLower(strings.TrimSpace(d.Property)),
					Value:     strings.TrimSpace(d.Value),
					Important: d.Important,
				})
			}
			s.Rules = append(s.Rules, rule)
			continue
		}

		switch strings.ToLower(r.Name) {
		case "@media":
			s.collect(r.Rules, strings.TrimSpace(r.Prelude))
		case "@supports":
			s.collect(r.Rules, media)
		case "@keyframes", "@-webkit-keyframes":
			s.Keyframes = append(s.Keyframes, strings.TrimSpace(r.Prelude))
		}
	}
}

// NormalizeSelector схлопывает пробелы, чтобы ".article  p" совпадал с ".article p".
func NormalizeSelector(sel string) string {
	sel = strings.Join(strings.Fields(sel), " ")
	for _, comb := range []string{">", "+", "~"} {
		sel = strings.ReplaceAll(sel, " "+comb+" ", comb)
		sel = strings.ReplaceAll(sel, " "+comb, comb)
		sel = strings.ReplaceAll(sel, comb+" ", comb)
	}
	return sel
}

// HasSelector - встречается ли селектор хоть в одном правиле, включая @media.
func (s *Stylesheet) HasSelector(selector string) bool {
	selector = NormalizeSelector(selector)
	for _, r := range s.Rules {
		if r.matches(selector) {
			return true
		}
	}
	return false
}

// Declared - значение свойства для селектора вне @media. Последнее объявление побеждает,
// !important перебивает обычные.
func (s *Stylesheet) Declared(selector, property string) (string, bool) {
	return s.lookup(selector, property, func(r Rule) bool { return r.Media == "" })
}

// DeclaredAt учитывает ещё и @media, применимые при ширине окна width.
func (s *Stylesheet) DeclaredAt(selector, property string, width int) (string, bool) {
	return s.lookup(selector, property, func(r Rule) bool {
		return r.Media == "" || MediaApplies(r.Media, width)
	})
}

// MediaDeclared - значение только из @media-правил, применимых при ширине width.
func (s *Stylesheet) MediaDeclared(selector, property string, width int) (string, bool) {
	return s.lookup(selector, property, func(r Rule) bool {
		return r.Media != "" && MediaApplies(r.Media, width)
	})
}

// HoverDeclared ищет свойство в правиле "selector:hover" (в любом контексте).
func (s *Stylesheet) HoverDeclared(selector, property string) (string, bool) {
	return s.lookup(NormalizeSelector(selector)+":hover", property, func(Rule) bool { return true })
}

func (s *Stylesheet) HasKeyframes(name string) bool {
	for _, k := range s.Keyframes {
		if k == name {
			return true
		}
	}
	return false
}

func (s *Stylesheet) lookup(selector, property string, accept func(Rule) bool) (string, bool) {
	selector = NormalizeSelector(selector)
	property = strings.ToLower(property)

	var (
		value     string
		found     bool
		important bool
	)
	for _, r := range s.Rules {
		if !accept(r) || !r.matches(selector) {
			continue
		}
		for _, d := range r.Declarations {
			if d.Property != property {
				continue
			}
			if important && !d.Important {
				continue
			}
			value, found, important = d.Value, true, d.Important
		}
	}
	return value, found
}
