package analyzer

import "testing"

func mustParse(t *testing.T, markup string) *Document {
	t.Helper()
	doc, err := ParseDocument(markup)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	return doc
}

func TestDocument_RawChecks(t *testing.T) {
	doc := mustParse(t, `<!doctype HTML>
<html lang="en"><head><title>x</title></head>
<body class="page"><header>h</header></body></html>`)

	if !doc.HasDoctype() {
		t.Error("HasDoctype() = false, want true")
	}
	if !doc.HasOpenTag("body") || !doc.HasCloseTag("body") {
		t.Error("body should be open and closed")
	}
	if !doc.HasOpenTag("head") {
		t.Error("head should be found")
	}
	if doc.HasCloseTag("main") {
		t.Error("main is not present")
	}
	if !doc.EnclosedInSource("html", "head") {
		t.Error("head should be inside html in source")
	}
}

func TestDocument_HeaderIsNotHead(t *testing.T) {
	doc := mustParse(t, `<html><body><header>x</header></body></html>`)
	if doc.HasOpenTag("head") {
		t.Error("HasOpenTag(head) must not match <header>")
	}
}

func TestDocument_EnclosedInSource_Outside(t *testing.T) {
	doc := mustParse(t, `<head></head><html><body></body></html>`)
	if doc.EnclosedInSource("html", "head") {
		t.Error("head before html must not count as enclosed")
	}
}

func TestDocument_TreeQueries(t *testing.T) {
	doc := mustParse(t, `<body>
<header><nav><a href="#">Home</a></nav><main>oops</main></header>
<div class="wrapper footer">legacy</div>
<h1> My   Travel Blog </h1>
<img src="https://picsum.photos/800/400" alt="Yunnan Scenery">
</body>`)

	if !doc.IsDescendant("header", "nav") {
		t.Error("nav should be inside header")
	}
	if c, ok := doc.InsideAny("main", []string{"nav", "header", "footer"}); !ok || c != "header" {
		t.Errorf("InsideAny(main) = (%q, %v), want (header, true)", c, ok)
	}
	if !doc.HasMarker("div", "class", "footer") {
		t.Error("HasMarker(div.footer) = false, want true")
	}
	if doc.HasMarker("div", "class", "header") {
		t.Error("HasMarker(div.header) = true, want false")
	}
	h1 := doc.FindAll("H1")
	if len(h1) != 1 || Text(h1[0]) != "My Travel Blog" {
		t.Errorf("h1 text = %v", h1)
	}
	imgs := doc.FindAll("img")
	if len(imgs) != 1 || Attr(imgs[0], "alt") != "Yunnan Scenery" {
		t.Error("img alt mismatch")
	}
}
