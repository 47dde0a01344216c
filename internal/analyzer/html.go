package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var doctypeRe = regexp.MustCompile(`(?i)<!doctype\s+html\b[^>]*>`)

// Document - разобранная разметка плюс исходный текст для регэксп-проверок.
// Парсер толерантен к ошибкам, как браузер.
type Document struct {
	raw  string
	root *html.Node
}

func ParseDocument(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return &Document{raw: markup, root: root}, nil
}

func (d *Document) HasDoctype() bool {
	return doctypeRe.MatchString(d.raw)
}

// HasOpenTag ищет открывающий тег в исходном тексте, атрибуты не важны.
func (d *Document) HasOpenTag(tag string) bool {
	return openTagRe(tag).MatchString(d.raw)
}

func (d *Document) HasCloseTag(tag string) bool {
	return closeTagRe(tag).MatchString(d.raw)
}

// EnclosedInSource - открывающий тег child стоит между открывающим и закрывающим тегом parent.
// Парсер сам достраивает html/head/body, поэтому порядок проверяем ещё и по исходнику.
func (d *Document) EnclosedInSource(parent, child string) bool {
	open := openTagRe(parent).FindStringIndex(d.raw)
	closeIdx := closeTagRe(parent).FindAllStringIndex(d.raw, -1)
	inner := openTagRe(child).FindStringIndex(d.raw)
	if open == nil || len(closeIdx) == 0 || inner == nil {
		return false
	}
	last := closeIdx[len(closeIdx)-1]
	return inner[0] > open[0] && inner[0] < last[0]
}

// IsDescendant - есть ли элемент child внутри элемента parent в дереве.
func (d *Document) IsDescendant(parent, child string) bool {
	child = strings.ToLower(child)
	for _, p := range d.FindAll(parent) {
		if hasDescendant(p, child) {
			return true
		}
	}
	return false
}

// InsideAny - лежит ли хоть один элемент tag внутри одного из containers.
// Возвращает имя первого найденного контейнера.
func (d *Document) InsideAny(tag string, containers []string) (string, bool) {
	for _, n := range d.FindAll(tag) {
		for p := n.Parent; p != nil; p = p.Parent {
			if p.Type != html.ElementNode {
				continue
			}
			for _, c := range containers {
				if p.Data == strings.ToLower(c) {
					return c, true
				}
			}
		}
	}
	return "", false
}

// FindAll возвращает элементы с данным именем в порядке документа.
func (d *Document) FindAll(tag string) []*html.Node {
	tag = strings.ToLower(tag)
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

func (d *Document) Count(tag string) int { return len(d.FindAll(tag)) }

// HasMarker - есть ли элемент tag, у которого атрибут attr содержит токен value.
func (d *Document) HasMarker(tag, attr, value string) bool {
	for _, n := range d.FindAll(tag) {
		for _, tok := range strings.Fields(Attr(n, attr)) {
			if strings.EqualFold(tok, value) {
				return true
			}
		}
	}
	return false
}

// Text - склеенный текст узла без крайних пробелов, внутренние пробелы схлопнуты.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasDescendant(n *html.Node, tag string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return true
		}
		if hasDescendant(c, tag) {
			return true
		}
	}
	return false
}

func openTagRe(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)<` + regexp.QuoteMeta(tag) + `\b`)
}

func closeTagRe(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)</` + regexp.QuoteMeta(tag) + `\s*>`)
}
