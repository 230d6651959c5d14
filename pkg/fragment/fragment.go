// Package fragment turns the server's pre-rendered history fragments into
// rows and links the terminal can display.
package fragment

import (
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Status string

const (
	StatusUnknown   Status = ""
	StatusNew       Status = "new"
	StatusPrinting  Status = "printing"
	StatusDelivered Status = "delivered"
)

type Row struct {
	Cells  []string
	Status Status
	At     time.Time
	Links  []Link
}

type Link struct {
	Href    string
	Text    string
	Classes []string
}

func (l Link) HasClass(class string) bool {
	for _, c := range l.Classes {
		if c == class {
			return true
		}
	}
	return false
}

type Document struct {
	Header []string
	Rows   []Row
	Links  []Link
}

// LinksWithClass returns the links carrying class, in document order.
func (d *Document) LinksWithClass(class string) []Link {
	var out []Link
	for _, l := range d.Links {
		if l.HasClass(class) {
			out = append(out, l)
		}
	}
	return out
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads an HTML fragment. Table rows made of <th> cells become the
// header; every other row with cells becomes a Row. Bare <tr> rows meant
// for an existing table body are accepted too.
func Parse(r io.Reader) (*Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read fragment")
	}
	s := string(b)

	doc, err := parseIn(s, atom.Body)
	if err != nil {
		return nil, err
	}
	if len(doc.Rows) == 0 && doc.Header == nil && strings.Contains(strings.ToLower(s), "<tr") {
		return parseIn(s, atom.Tbody)
	}
	return doc, nil
}

func parseIn(s string, context atom.Atom) (*Document, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: context.String(), DataAtom: context}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, errors.Wrap(err, "parse fragment")
	}

	doc := &Document{}
	for _, n := range nodes {
		walk(n, doc)
	}
	return doc, nil
}

func walk(n *html.Node, doc *Document) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Tr:
			parseRow(n, doc)
			return
		case atom.A:
			doc.Links = append(doc.Links, parseLink(n))
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, doc)
	}
}

func parseRow(tr *html.Node, doc *Document) {
	var row Row
	header := true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		if c.DataAtom == atom.Td {
			header = false
		}
		text := textOf(c)
		row.Cells = append(row.Cells, text)
		row.Links = append(row.Links, collectLinks(c)...)

		if row.Status == StatusUnknown {
			row.Status = statusOf(text)
		}
		if row.At.IsZero() {
			row.At = timeOf(text)
		}
	}
	if len(row.Cells) == 0 {
		return
	}
	doc.Links = append(doc.Links, row.Links...)
	if header {
		doc.Header = row.Cells
		return
	}
	doc.Rows = append(doc.Rows, row)
}

func parseLink(a *html.Node) Link {
	l := Link{Text: textOf(a)}
	for _, attr := range a.Attr {
		switch attr.Key {
		case "href":
			l.Href = attr.Val
		case "class":
			l.Classes = strings.Fields(attr.Val)
		}
	}
	return l
}

func collectLinks(n *html.Node) []Link {
	var out []Link
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			out = append(out, parseLink(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return out
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func statusOf(text string) Status {
	switch Status(strings.ToLower(text)) {
	case StatusNew:
		return StatusNew
	case StatusPrinting:
		return StatusPrinting
	case StatusDelivered:
		return StatusDelivered
	}
	return StatusUnknown
}

// timeOf only tries cells that look like a date or a clock time; dateparse
// would otherwise read plain ids as unix timestamps.
func timeOf(text string) time.Time {
	if len(text) < 8 || !strings.ContainsAny(text, "-/:") {
		return time.Time{}
	}
	t, err := dateparse.ParseLocal(text)
	if err != nil {
		return time.Time{}
	}
	return t
}
