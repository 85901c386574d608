package permit

import (
	"errors"
	"reflect"
	"testing"
)

func TestWithFieldSetsTopLevelField(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	updated, err := WithField(doc, "plant", "HSM-1")
	if err != nil {
		t.Fatalf("WithField failed: %v", err)
	}
	if updated.Plant != "HSM-1" {
		t.Errorf("plant = %q", updated.Plant)
	}
	if doc.Plant != "" {
		t.Error("input document mutated")
	}
}

func TestWithFieldIdempotent(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	once, err := WithField(doc, "plant", "HSM-1")
	if err != nil {
		t.Fatalf("first set failed: %v", err)
	}
	twice, err := WithField(once, "plant", "HSM-1")
	if err != nil {
		t.Fatalf("second set failed: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Error("repeated identical set changed the document")
	}
}

func TestWithFieldNestedPath(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	updated, err := WithField(doc, "signOff.authoriser.nominee.name", "R. Iyer")
	if err != nil {
		t.Fatalf("WithField failed: %v", err)
	}
	if updated.SignOff.Authoriser.Nominee.Name != "R. Iyer" {
		t.Errorf("nominee name = %q", updated.SignOff.Authoriser.Nominee.Name)
	}
}

func TestWithFieldListIndexPath(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	doc = AddAttachment(doc, "hirac.pdf", "ref-1")

	updated, err := WithField(doc, "attachments.0.name", "hirac-v2.pdf")
	if err != nil {
		t.Fatalf("WithField failed: %v", err)
	}
	if updated.Attachments[0].Name != "hirac-v2.pdf" {
		t.Errorf("attachment name = %q", updated.Attachments[0].Name)
	}
	if updated.Attachments[0].ID != doc.Attachments[0].ID {
		t.Error("attachment identity changed on field edit")
	}
}

func TestWithFieldUnknownPathIsReportedNoop(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	updated, err := WithField(doc, "noSuchSection.value", 1)
	if err == nil {
		t.Fatal("expected error for unknown path")
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %T", err)
	}
	if !reflect.DeepEqual(doc, updated) {
		t.Error("document changed despite unknown path")
	}
}

func TestWithFieldWrongTypeIsReportedNoop(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	updated, err := WithField(doc, "plant", 42)
	if err == nil {
		t.Fatal("expected error for mistyped value")
	}
	if !reflect.DeepEqual(doc, updated) {
		t.Error("document changed despite mistyped value")
	}
}

func TestWithFieldMatrixEntry(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	updated, err := WithField(doc, "ppe.eyeProtection.checked", true)
	if err != nil {
		t.Fatalf("WithField failed: %v", err)
	}
	if !updated.PPE["eyeProtection"].Checked {
		t.Error("matrix entry not updated")
	}
}

func TestWithFieldEmptyPath(t *testing.T) {
	doc := NewDocument(DocWork, testNow)
	if _, err := WithField(doc, "", "x"); err == nil {
		t.Error("expected error for empty path")
	}
}
