package wizard

import (
	"testing"
	"time"

	"permitdesk/api/internal/permit"
)

var testNow = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func readyDocument() permit.Document {
	doc := permit.NewDocument(permit.DocWork, testNow)
	doc.PermitNumber = "WCS-1"
	doc.CertificateNumber = "C-1"
	doc.PermitType = permit.TypeHot
	doc.StartDate = "2024-01-01"
	doc.EndDate = "2024-01-02"
	doc.StartTime = "08:00"
	doc.EndTime = "17:00"
	doc.Plant = "HSM-1"
	doc.Location = "Bay 4"
	doc.EquipmentName = "Reheat Furnace"
	doc.EquipmentID = "RF-201"
	doc = permit.WithDescriptionHTML(doc, "Replace burner block and inspect lining.")
	doc.SignOff.Applicant = permit.Party{Name: "S. Kulkarni", SignatureImage: "sig-a"}
	doc.SignOff.Holder = permit.Party{Name: "A. Menon", SignatureImage: "sig-h"}
	return doc
}

func TestNextBlockedWithoutPermitNumber(t *testing.T) {
	doc := readyDocument()
	doc.PermitNumber = ""

	w := New()
	outcome := w.Next(doc)

	if outcome.Advanced {
		t.Error("gate passed with empty permit number")
	}
	if w.Current() != StepBasicDetails {
		t.Errorf("current step = %d, want basic details", w.Current())
	}
	found := false
	for _, label := range outcome.Missing {
		if label == "Permit No." {
			found = true
		}
	}
	if !found {
		t.Errorf("missing list %v does not name the permit number", outcome.Missing)
	}
}

func TestNextAdvancesWhenGatePasses(t *testing.T) {
	w := New()
	outcome := w.Next(readyDocument())

	if !outcome.Advanced || len(outcome.Missing) != 0 {
		t.Fatalf("gate blocked a complete document: %v", outcome.Missing)
	}
	if w.Current() != StepSafetyPrecautions {
		t.Errorf("current step = %d, want safety step", w.Current())
	}
}

func TestViolationsAreCollectedNotFailFast(t *testing.T) {
	doc := readyDocument()
	doc.PermitNumber = ""
	doc.Plant = ""
	doc.SignOff.Holder.SignatureImage = ""

	outcome := New().Next(doc)
	if len(outcome.Missing) < 3 {
		t.Errorf("expected all violations collected, got %v", outcome.Missing)
	}
}

func TestStartAfterEndFailsGate(t *testing.T) {
	doc := readyDocument()
	doc.StartDate = "2024-03-10"
	doc.StartTime = "09:00"
	doc.EndDate = "2024-03-10"
	doc.EndTime = "08:00"

	outcome := New().Next(doc)
	if outcome.Advanced {
		t.Fatal("gate passed with start after end")
	}
	found := false
	for _, label := range outcome.Missing {
		if label == "Start must not be after End" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing list %v lacks the ordering violation", outcome.Missing)
	}
}

func TestShortDescriptionFailsGate(t *testing.T) {
	doc := readyDocument()
	doc = permit.WithDescriptionHTML(doc, "<p>short</p>")

	outcome := New().Next(doc)
	if outcome.Advanced {
		t.Error("gate passed with a nine-character description")
	}
}

func TestPrevNeverBlockedAndClamped(t *testing.T) {
	w := New()
	w.Prev()
	if w.Current() != StepBasicDetails {
		t.Error("prev went below first step")
	}

	w.GoTo(StepCertificates)
	w.Prev()
	if w.Current() != StepPPEFire {
		t.Errorf("current step = %d after prev", w.Current())
	}
}

func TestGoToIsUnconditional(t *testing.T) {
	w := New()
	// jump forward over the gate without a valid document
	if !w.GoTo(StepFinalReview) {
		t.Fatal("direct jump rejected")
	}
	if w.Current() != StepFinalReview {
		t.Errorf("current step = %d", w.Current())
	}
	if w.GoTo(Step(99)) {
		t.Error("out-of-range jump accepted")
	}
	if w.GoTo(Step(-1)) {
		t.Error("negative jump accepted")
	}
}

func TestFinalStepNextSubmits(t *testing.T) {
	w := New()
	w.GoTo(StepFinalReview)

	outcome := w.Next(readyDocument())
	if !outcome.Submitted {
		t.Error("final step did not report submission")
	}
	if outcome.Advanced || w.Current() != StepFinalReview {
		t.Error("final step advanced past the end")
	}
}

func TestFullTraversal(t *testing.T) {
	w := New()
	doc := readyDocument()
	for i := 0; i < StepCount()-1; i++ {
		outcome := w.Next(doc)
		if !outcome.Advanced {
			t.Fatalf("blocked at step %d: %v", i, outcome.Missing)
		}
	}
	if w.Current() != StepFinalReview {
		t.Errorf("traversal ended at %d", w.Current())
	}
	if !w.Next(doc).Submitted {
		t.Error("traversal did not end in submission")
	}
}

func TestStepTitles(t *testing.T) {
	if StepBasicDetails.Title() != "Basic Details" {
		t.Error("first step title wrong")
	}
	if StepFinalReview.Title() != "Final Review" {
		t.Error("last step title wrong")
	}
	if Step(99).Title() != "" {
		t.Error("out-of-range step has a title")
	}
}
