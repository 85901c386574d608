package permit

import (
	"strings"
	"time"
)

// Variant names one of the three permit document shapes. Each variant
// has its own schema sections and print layout; switching between them
// is navigation, not an in-place edit.
type Variant string

const (
	VariantWork        Variant = "work"
	VariantHighTension Variant = "highTension"
	VariantGasLine     Variant = "gasLine"
)

// ResolveVariant maps a document type to its variant. Unknown types
// fall back to the standard work permit.
func ResolveVariant(docType DocType) Variant {
	switch docType {
	case DocHighTension:
		return VariantHighTension
	case DocGasLine:
		return VariantGasLine
	default:
		return VariantWork
	}
}

// VariantTitle is the printed form heading per variant.
func VariantTitle(v Variant) string {
	switch v {
	case VariantHighTension:
		return "High Tension Line Work Permit"
	case VariantGasLine:
		return "Gas Line Work Permit"
	default:
		return "Work Permit"
	}
}

// SwitchVariant starts a fresh authoring context for the target
// variant. Header identity carries over; everything else restarts at
// defaults, and the caller receives the list of populated fields the
// switch abandons so it can warn before committing. Per-variant
// persistence of the abandoned document is the service layer's job.
func SwitchVariant(doc Document, target DocType, now time.Time) (Document, []string) {
	if doc.DocType == target {
		return doc, nil
	}

	out := NewDocument(target, now)
	out.PermitNumber = doc.PermitNumber
	out.CertificateNumber = doc.CertificateNumber
	out.PermitType = doc.PermitType

	return out, droppedFields(doc)
}

// droppedFields names the in-progress values that do not carry across a
// variant switch.
func droppedFields(doc Document) []string {
	var dropped []string
	add := func(label string, populated bool) {
		if populated {
			dropped = append(dropped, label)
		}
	}

	add("Plant", strings.TrimSpace(doc.Plant) != "")
	add("Location", strings.TrimSpace(doc.Location) != "")
	add("Equipment Name", strings.TrimSpace(doc.EquipmentName) != "")
	add("Equipment ID", strings.TrimSpace(doc.EquipmentID) != "")
	add("Work Description", strings.TrimSpace(doc.Description) != "")
	add("Attachments", len(doc.Attachments) > 0)
	add("Safety Checklist Additions", len(doc.SafetyTable) > defaultSafetyRowCount)
	add("Custom Matrix Items", len(doc.CustomItems) > 0)
	add("Revalidations", len(doc.Status.Revalidations) > 0)

	for _, key := range PPEItems {
		if doc.PPE[key].Checked || doc.PPE[key].Remarks != "" {
			dropped = append(dropped, "PPE Matrix")
			break
		}
	}
	for _, key := range FireItems {
		if doc.Fire[key].Checked || doc.Fire[key].Remarks != "" {
			dropped = append(dropped, "Fire Precautions")
			break
		}
	}
	for _, key := range CertificateItems {
		if doc.Certificates[key].Checked || doc.Certificates[key].Remarks != "" {
			dropped = append(dropped, "Certificates")
			break
		}
	}

	add("Applicant Sign-off", doc.SignOff.Applicant != Party{})
	add("Holder Sign-off", doc.SignOff.Holder != Party{})
	add("Authoriser Sign-off", doc.SignOff.Authoriser.Party != Party{} || doc.SignOff.Authoriser.Nominee != Party{})

	if doc.HighTension != nil && *doc.HighTension != (HighTensionDetails{}) {
		dropped = append(dropped, "High Tension Details")
	}
	if doc.GasLine != nil && *doc.GasLine != (GasLineDetails{}) {
		dropped = append(dropped, "Gas Line Details")
	}
	return dropped
}
