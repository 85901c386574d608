package permit

import (
	"math"
	"strings"
)

// CompletionPercent derives overall readiness from ten equally weighted
// presence checks. It is recomputed on every call; the result can only
// move when one of the tracked fields changes.
func CompletionPercent(doc Document) int {
	checks := []bool{
		strings.TrimSpace(doc.PermitNumber) != "",
		strings.TrimSpace(doc.CertificateNumber) != "",
		doc.StartDate != "" && doc.EndDate != "",
		strings.TrimSpace(doc.Plant) != "",
		strings.TrimSpace(doc.Location) != "",
		strings.TrimSpace(doc.EquipmentName) != "",
		strings.TrimSpace(doc.EquipmentID) != "",
		len(strings.TrimSpace(doc.Description)) > 10,
		doc.SignOff.Applicant.SignatureImage != "" && doc.SignOff.Holder.SignatureImage != "",
		strings.TrimSpace(doc.SignOff.Applicant.Name) != "" && strings.TrimSpace(doc.SignOff.Holder.Name) != "",
	}

	done := 0
	for _, ok := range checks {
		if ok {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(checks)) * 100))
}

// PPEFireCompletionPercent is the ratio of checked entries across the
// PPE and fire matrices. Custom items are excluded from the
// denominator.
func PPEFireCompletionPercent(doc Document) int {
	total := len(PPEItems) + len(FireItems)
	if total == 0 {
		return 0
	}

	checked := 0
	for _, key := range PPEItems {
		if doc.PPE[key].Checked {
			checked++
		}
	}
	for _, key := range FireItems {
		if doc.Fire[key].Checked {
			checked++
		}
	}
	return int(math.Round(float64(checked) / float64(total) * 100))
}
