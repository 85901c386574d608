package printview

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"permitdesk/api/internal/fieldstore"
	"permitdesk/api/internal/permit"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func sampleInput(docType permit.DocType) Input {
	doc := permit.NewDocument(docType, testNow)
	doc.CertificateNumber = "C-42"
	doc.Plant = "HSM-1"
	doc.Location = "Bay 4"
	doc.EquipmentName = "Reheat Furnace"
	doc.EquipmentID = "RF-201"
	doc = permit.WithDescriptionHTML(doc, "<p>Replace burner block &amp; inspect lining</p>")
	doc.PPE["safetyHelmet"] = permit.MatrixEntry{Checked: true, Remarks: "crew of 4"}
	doc.SignOff.Applicant = permit.Party{Name: "S. Kulkarni", ContactNo: "98220-11111"}

	return Input{
		Doc: doc,
		Header: permit.Header{
			PermitNumber:    doc.PermitNumber,
			PermitRequester: "S. Kulkarni",
			PermitApprover1: "A. Menon",
			SafetyManager:   "V. Rao",
		},
	}
}

func TestRenderWorkPermit(t *testing.T) {
	in := sampleInput(permit.DocWork)
	printable, err := Render(in)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if printable.Title != "Work Permit" {
		t.Errorf("title = %q", printable.Title)
	}
	for _, want := range []string{
		in.Doc.PermitNumber,
		"C-42",
		"HSM-1",
		"Reheat Furnace",
		"Safety Helmet",
		"crew of 4",
		"S. Kulkarni",
		"Replace burner block",
	} {
		if !strings.Contains(printable.HTML, want) {
			t.Errorf("rendered form missing %q", want)
		}
	}
}

func TestRenderSelectsVariantTemplate(t *testing.T) {
	ht := sampleInput(permit.DocHighTension)
	ht.Doc.HighTension.VoltageKV = "33"
	printable, err := Render(ht)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if printable.Title != "High Tension Line Work Permit" {
		t.Errorf("title = %q", printable.Title)
	}
	if !strings.Contains(printable.HTML, "High Tension Line Details") {
		t.Error("high tension section not rendered")
	}

	gl := sampleInput(permit.DocGasLine)
	gl.Doc.GasLine.LineContent = "Coke oven gas"
	printable, err = Render(gl)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(printable.HTML, "Coke oven gas") {
		t.Error("gas line section not rendered")
	}
}

func TestRenderDoesNotMutateDocument(t *testing.T) {
	in := sampleInput(permit.DocWork)
	before := in.Doc.Clone()

	if _, err := Render(in); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !reflect.DeepEqual(before, in.Doc) {
		t.Error("Render mutated the document")
	}
}

func TestRenderEmptyCommentBundleShowsPlaceholder(t *testing.T) {
	in := sampleInput(permit.DocWork)
	in.Comments = map[string]permit.CommentBundle{
		fieldstore.KeyRequesterComments: permit.NewCommentBundle(),
	}

	printable, err := Render(in)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(printable.HTML, "No comments yet") {
		t.Error("empty bundle placeholder not rendered")
	}
}

func TestRenderPopulatedCommentBundle(t *testing.T) {
	bundle := permit.NewCommentBundle()
	bundle.RequireUrgent = true
	bundle = permit.AddCustomComment(bundle, "Coordinate with shift in-charge")

	in := sampleInput(permit.DocWork)
	in.Comments = map[string]permit.CommentBundle{
		fieldstore.KeySafetyComments: bundle,
	}

	printable, err := Render(in)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(printable.HTML, "Safety Officer Remarks") {
		t.Error("bundle heading missing")
	}
	if !strings.Contains(printable.HTML, "Coordinate with shift in-charge") {
		t.Error("custom comment missing")
	}
}

func TestRenderEscapesDescription(t *testing.T) {
	in := sampleInput(permit.DocWork)
	in.Doc.Description = `<script>alert("x")</script> weld the flange`

	printable, err := Render(in)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(printable.HTML, "<script>") {
		t.Error("description rendered unescaped")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Work Permit", "Work-Permit"},
		{"Gas Line / Permit!", "Gas-Line--Permit"},
		{"", "permit"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	if got := percentEncodeForDataURL("a b"); got != "a%20b" {
		t.Errorf("space encoding = %q", got)
	}
	if got := percentEncodeForDataURL("safe-chars_.~"); got != "safe-chars_.~" {
		t.Errorf("unreserved chars touched: %q", got)
	}
	if got := percentEncodeForDataURL("<p>"); got != "%3Cp%3E" {
		t.Errorf("angle brackets = %q", got)
	}
}

func TestLabelFor(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"eyeProtection", "Eye Protection"},
		{"fireWatcher", "Fire Watcher"},
		{"confinedSpace", "Confined Space"},
		{"apron", "Apron"},
	}
	for _, tc := range cases {
		if got := labelFor(tc.in); got != tc.want {
			t.Errorf("labelFor(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
