package analyzer

import (
	"strings"
	"unicode"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/gorilla/css/scanner"
)

// Разбор с восстановлением, как в браузере: битое правило или объявление
// выбрасывается, остальная таблица продолжает действовать.

// recoverRules разбирает каждое правило верхнего уровня отдельно.
func recoverRules(text string) []*css.Rule {
	var out []*css.Rule
	for _, b := range topLevelBlocks(text) {
		if sheet, err := parser.Parse(b); err == nil {
			out = append(out, sheet.Rules...)
			continue
		}
		if r := recoverRule(b); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// topLevelBlocks режет текст на правила верхнего уровня. Лишняя "}" не закрывает
// ничего и уходит в прелюдию следующего правила, которое из-за этого отбрасывается.
// Незакрытый комментарий или строка обрывают текст, незакрытые блоки достраиваются.
func topLevelBlocks(text string) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if strings.TrimSpace(cur.String()) != "" {
			out = append(out, cur.String())
		}
		cur.Reset()
	}

	s := scanner.New(text)
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF, scanner.TokenError:
			cur.WriteString(strings.Repeat("}", depth))
			flush()
			return out
		case scanner.TokenBOM:
			continue
		}

		cur.WriteString(tok.Value)
		if tok.Type != scanner.TokenChar {
			continue
		}
		switch tok.Value {
		case "{":
			depth++
		case "}":
			if depth > 0 {
				depth--
				if depth == 0 {
					flush()
				}
			}
		case ";":
			if depth == 0 {
				flush()
			}
		}
	}
}

// splitBlock делит правило на прелюдию и тело внешнего блока.
func splitBlock(text string) (prelude, body string, ok bool) {
	var (
		pre, inner strings.Builder
		depth      int
	)
	s := scanner.New(text)
	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError {
			break
		}
		if tok.Type == scanner.TokenChar {
			switch tok.Value {
			case "{":
				depth++
				if depth == 1 {
					ok = true
					continue
				}
			case "}":
				depth--
				if depth == 0 {
					return pre.String(), inner.String(), ok
				}
			}
		}
		if depth == 0 {
			pre.WriteString(tok.Value)
		} else {
			inner.WriteString(tok.Value)
		}
	}
	return pre.String(), inner.String(), ok
}

func recoverRule(text string) *css.Rule {
	prelude, body, ok := splitBlock(text)
	prelude = strings.TrimSpace(prelude)
	if !ok || prelude == "" || strings.Contains(prelude, "}") {
		return nil
	}

	if !strings.HasPrefix(prelude, "@") {
		decls := recoverDeclarations(body)
		if len(decls) == 0 {
			return nil
		}
		r := css.NewRule(css.QualifiedRule)
		r.Prelude = prelude
		for _, sel := range strings.Split(prelude, ",") {
			r.Selectors = append(r.Selectors, strings.TrimSpace(sel))
		}
		r.Declarations = decls
		return r
	}

	end := strings.IndexFunc(prelude[1:], func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '-'
	})
	name, rest := prelude, ""
	if end >= 0 {
		name, rest = prelude[:end+1], strings.TrimSpace(prelude[end+1:])
	}

	r := css.NewRule(css.AtRule)
	r.Name = name
	r.Prelude = rest
	switch strings.ToLower(name) {
	case "@media", "@supports":
		r.Rules = recoverRules(body)
		if len(r.Rules) == 0 {
			return nil
		}
		return r
	case "@keyframes", "@-webkit-keyframes":
		return r
	}
	return nil
}

// recoverDeclarations разбирает объявления по одному и пропускает битые.
func recoverDeclarations(body string) []*css.Declaration {
	var out []*css.Declaration
	for _, piece := range splitDeclarations(body) {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		decls, err := parser.ParseDeclarations(piece + ";")
		if err != nil {
			continue
		}
		for _, d := range decls {
			if d.Property != "" && d.Value != "" {
				out = append(out, d)
			}
		}
	}
	return out
}

// splitDeclarations режет тело блока по ";" вне скобок: url(a;b) не разрывается.
func splitDeclarations(body string) []string {
	var (
		out   []string
		cur   strings.Builder
		paren int
	)
	s := scanner.New(body)
	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError {
			break
		}
		switch {
		case tok.Type == scanner.TokenFunction:
			paren++
		case tok.Type == scanner.TokenChar && tok.Value == "(":
			paren++
		case tok.Type == scanner.TokenChar && tok.Value == ")" && paren > 0:
			paren--
		case tok.Type == scanner.TokenChar && tok.Value == ";" && paren == 0:
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteString(tok.Value)
	}
	return append(out, cur.String())
}
