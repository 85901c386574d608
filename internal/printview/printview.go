// Package printview projects a permit document into its print-ready
// regulator-style form. Render is a pure function of its input; it
// never mutates the document.
package printview

import (
	"errors"
	"strings"
	"unicode"

	"permitdesk/api/internal/permit"
)

// Input is everything the printed form shows: the document, the shared
// header and the comment bundles keyed by field store key.
type Input struct {
	Doc      permit.Document
	Header   permit.Header
	Comments map[string]permit.CommentBundle
}

// Printable is the paginated print representation handed to the UI
// shell or the PDF exporter.
type Printable struct {
	Title string
	HTML  string
}

// Result is a finished export payload.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates the headless browser runtime is not
// installed.
var ErrPDFDependencyMissing = errors.New("printview: pdf dependency missing")

// Render builds the printable form for the document's variant.
func Render(in Input) (*Printable, error) {
	variant := permit.ResolveVariant(in.Doc.DocType)
	title := permit.VariantTitle(variant)

	html, err := renderTemplate(variant, buildView(in, variant, title))
	if err != nil {
		return nil, err
	}
	return &Printable{Title: title, HTML: html}, nil
}

// labelFor turns a controlled-vocabulary key into its printed label.
func labelFor(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
