package permit

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func TestNewDocumentDefaults(t *testing.T) {
	doc := NewDocument(DocWork, testNow)

	if doc.PermitNumber == "" {
		t.Error("permit number not generated")
	}
	if !strings.HasPrefix(doc.PermitNumber, "PTW-") {
		t.Errorf("unexpected permit number scheme: %s", doc.PermitNumber)
	}
	if doc.DocType != DocWork {
		t.Errorf("doc type = %s", doc.DocType)
	}
	if len(doc.SafetyTable) != defaultSafetyRowCount {
		t.Errorf("safety table rows = %d, want %d", len(doc.SafetyTable), defaultSafetyRowCount)
	}
	if doc.SafetyTable[0].LeftNo != "1.1" {
		t.Errorf("first left number = %s", doc.SafetyTable[0].LeftNo)
	}
	if doc.SafetyTable[9].LeftNo != "2.0" {
		t.Errorf("tenth left number = %s", doc.SafetyTable[9].LeftNo)
	}
	if len(doc.PPE) != len(PPEItems) || len(doc.Fire) != len(FireItems) {
		t.Error("matrices not seeded from vocabularies")
	}
	if doc.HighTension != nil || doc.GasLine != nil {
		t.Error("work permit carries variant sections")
	}
}

func TestNewDocumentVariantSections(t *testing.T) {
	ht := NewDocument(DocHighTension, testNow)
	if ht.HighTension == nil {
		t.Error("high tension permit missing its section")
	}
	gl := NewDocument(DocGasLine, testNow)
	if gl.GasLine == nil {
		t.Error("gas line permit missing its section")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	cp := doc.Clone()

	cp.SafetyTable[0].Left = "changed"
	cp.PPE["safetyHelmet"] = MatrixEntry{Checked: true}

	if doc.SafetyTable[0].Left == "changed" {
		t.Error("clone shares safety table backing array")
	}
	if doc.PPE["safetyHelmet"].Checked {
		t.Error("clone shares matrix map")
	}
}

func TestWithDescriptionHTMLKeepsProjectionInSync(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	doc = WithDescriptionHTML(doc, "<p>Grinding &amp; welding on <b>line 4</b></p>")

	if doc.DescriptionHTML == "" {
		t.Error("html description not set")
	}
	if doc.Description != "Grinding &amp; welding on line 4" {
		t.Errorf("plain projection = %q", doc.Description)
	}
}

func TestAttachmentIdentityStableAcrossRemoval(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	doc = AddAttachment(doc, "hirac.pdf", "ref-1")
	doc = AddAttachment(doc, "sop.pdf", "ref-2")
	doc = AddAttachment(doc, "sketch.png", "ref-3")

	second := doc.Attachments[1].ID
	third := doc.Attachments[2].ID

	doc = RemoveAttachment(doc, doc.Attachments[0].ID)
	if len(doc.Attachments) != 2 {
		t.Fatalf("attachments = %d, want 2", len(doc.Attachments))
	}
	if doc.Attachments[0].ID != second || doc.Attachments[1].ID != third {
		t.Error("surviving attachments changed identity after removal")
	}
}

func TestRemoveSafetyRowProtectsReservedRows(t *testing.T) {
	doc := NewDocument(DocWork, testNow)

	doc = RemoveSafetyRow(doc, doc.SafetyTable[0].ID)
	if len(doc.SafetyTable) != defaultSafetyRowCount {
		t.Error("reserved metadata row was removed")
	}

	doc = AddSafetyRow(doc, "Extra isolation verified", "", "Extra watcher posted")
	added := doc.SafetyTable[len(doc.SafetyTable)-1].ID
	doc = RemoveSafetyRow(doc, added)
	if len(doc.SafetyTable) != defaultSafetyRowCount {
		t.Error("user-added row not removed")
	}
}

func TestRevalidationIDsMonotonic(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	doc = AddRevalidation(doc)
	doc = AddRevalidation(doc)

	first := doc.Status.Revalidations[0].ID
	second := doc.Status.Revalidations[1].ID
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}

	doc = RemoveRevalidation(doc, second)
	doc = AddRevalidation(doc)
	replacement := doc.Status.Revalidations[1].ID
	if replacement == second {
		t.Error("revalidation id reused after removal")
	}
	if replacement <= first {
		t.Error("sequence rewound after removal")
	}
}

func TestAddCustomItemRejectsBlankLabel(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	doc = AddCustomItem(doc, "   ")
	if len(doc.CustomItems) != 0 {
		t.Error("blank custom item accepted")
	}

	doc = AddCustomItem(doc, "Welding screen")
	if len(doc.CustomItems) != 1 {
		t.Fatal("custom item not added")
	}
	if doc.CustomItems[0].ID == "" {
		t.Error("custom item has no stable id")
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"<p>hello</p>", "hello"},
		{"plain text", "plain text"},
		{"<div><b>a</b> b</div>", "a b"},
		{"", ""},
		{"<br/>", ""},
	}
	for _, tc := range cases {
		if got := StripHTML(tc.in); got != tc.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
