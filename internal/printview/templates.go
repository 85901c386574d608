package printview

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"permitdesk/api/internal/fieldstore"
	"permitdesk/api/internal/permit"
)

//go:embed templates/*.html
var templateFS embed.FS

var formTemplates = template.Must(
	template.New("printview").Funcs(template.FuncMap{
		"mark": func(checked bool) string {
			if checked {
				return "Yes"
			}
			return "No"
		},
		"signature": func(dataURL string) template.URL {
			// sign-off images are data URLs produced by signature capture
			return template.URL(dataURL)
		},
	}).ParseFS(templateFS, "templates/*.html"),
)

// matrixRow is one printed line of a vocabulary matrix.
type matrixRow struct {
	Label   string
	Checked bool
	Remarks string
}

// commentView is one rendered comment bundle with its printed heading.
type commentView struct {
	Heading string
	Bundle  permit.CommentBundle
	Empty   bool
}

// formView is the template data for every variant.
type formView struct {
	Title        string
	Doc          permit.Document
	Header       permit.Header
	PPE          []matrixRow
	Fire         []matrixRow
	Certificates []matrixRow
	Comments     []commentView
	Completion   int
	MatrixDone   int
}

var commentHeadings = []struct {
	key     string
	heading string
}{
	{fieldstore.KeyRequesterComments, "Requester Comments to Approver"},
	{fieldstore.KeyApproverComments, "Approver Comments to Requester"},
	{fieldstore.KeyApproverToSafetyComments, "Approver Comments to Safety Officer"},
	{fieldstore.KeySafetyToApproverComments, "Safety Officer Comments to Approver"},
	{fieldstore.KeySafetyComments, "Safety Officer Remarks"},
}

func buildView(in Input, variant permit.Variant, title string) formView {
	view := formView{
		Title:        title,
		Doc:          in.Doc,
		Header:       in.Header,
		PPE:          matrixRows(in.Doc.PPE, permit.PPEItems),
		Fire:         matrixRows(in.Doc.Fire, permit.FireItems),
		Certificates: matrixRows(in.Doc.Certificates, permit.CertificateItems),
		Completion:   permit.CompletionPercent(in.Doc),
		MatrixDone:   permit.PPEFireCompletionPercent(in.Doc),
	}
	for _, item := range in.Doc.CustomItems {
		view.PPE = append(view.PPE, matrixRow{Label: item.Label, Checked: item.Checked, Remarks: item.Remarks})
	}
	for _, ch := range commentHeadings {
		bundle, ok := in.Comments[ch.key]
		if !ok {
			continue
		}
		view.Comments = append(view.Comments, commentView{
			Heading: ch.heading,
			Bundle:  bundle,
			Empty:   bundle.IsEmpty(),
		})
	}
	return view
}

func matrixRows(m map[string]permit.MatrixEntry, vocab []string) []matrixRow {
	rows := make([]matrixRow, 0, len(vocab))
	for _, key := range vocab {
		entry := m[key]
		rows = append(rows, matrixRow{Label: labelFor(key), Checked: entry.Checked, Remarks: entry.Remarks})
	}
	return rows
}

func renderTemplate(variant permit.Variant, view formView) (string, error) {
	name := map[permit.Variant]string{
		permit.VariantWork:        "work.html",
		permit.VariantHighTension: "hightension.html",
		permit.VariantGasLine:     "gasline.html",
	}[variant]
	if name == "" {
		name = "work.html"
	}

	var buf bytes.Buffer
	if err := formTemplates.ExecuteTemplate(&buf, name, view); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
