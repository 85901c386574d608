// Package wizard drives the ordered authoring steps of a permit. Only
// the first transition carries a validation gate; everything else is
// free navigation.
package wizard

import (
	"fmt"
	"strings"
	"time"

	"permitdesk/api/internal/permit"
)

type Step int

const (
	StepBasicDetails Step = iota
	StepSafetyPrecautions
	StepPPEFire
	StepCertificates
	StepPermitsSignatures
	StepReturnsRevalidation
	StepImportantInstructions
	StepFinalReview

	stepCount
)

var stepTitles = [...]string{
	"Basic Details",
	"Safety & Precautions",
	"PPE & Fire",
	"Certificates",
	"Permits & Signatures",
	"Returns & Revalidation",
	"Important Instructions",
	"Final Review",
}

// Title returns the display name of a step.
func (s Step) Title() string {
	if s < 0 || s >= stepCount {
		return ""
	}
	return stepTitles[s]
}

// StepCount is the number of authoring steps.
func StepCount() int { return int(stepCount) }

// Wizard tracks the current authoring step for one editing session.
type Wizard struct {
	current Step
}

func New() *Wizard {
	return &Wizard{current: StepBasicDetails}
}

func (w *Wizard) Current() Step { return w.current }

// Outcome reports the result of a Next call. Missing is only populated
// when the basic-details gate blocked the transition.
type Outcome struct {
	Advanced  bool
	Submitted bool
	Missing   []string
}

// Next advances one step. Leaving the basic-details step requires the
// gate to pass; every violation is collected so the user sees the full
// list at once. On the final step Next reports submission instead of
// advancing.
func (w *Wizard) Next(doc permit.Document) Outcome {
	if w.current == StepBasicDetails {
		if missing := ValidateBasicDetails(doc); len(missing) > 0 {
			return Outcome{Missing: missing}
		}
	}
	if w.current == StepFinalReview {
		return Outcome{Submitted: true}
	}
	w.current++
	return Outcome{Advanced: true}
}

// Prev steps back, never below the first step and never validated.
func (w *Wizard) Prev() {
	if w.current > StepBasicDetails {
		w.current--
	}
}

// GoTo jumps directly to any step without validating the steps in
// between. Out-of-range targets are rejected.
func (w *Wizard) GoTo(step Step) bool {
	if step < 0 || step >= stepCount {
		return false
	}
	w.current = step
	return true
}

// ValidateBasicDetails collects every violation of the step-0 gate.
// The returned labels are user-facing field names.
func ValidateBasicDetails(doc permit.Document) []string {
	var missing []string
	require := func(label string, ok bool) {
		if !ok {
			missing = append(missing, label)
		}
	}

	require("Permit Type", doc.PermitType != "")
	require("Permit No.", strings.TrimSpace(doc.PermitNumber) != "")
	require("Certificate No.", strings.TrimSpace(doc.CertificateNumber) != "")
	require("Start Date", doc.StartDate != "")
	require("End Date", doc.EndDate != "")
	require("Start Time", doc.StartTime != "")
	require("End Time", doc.EndTime != "")

	if start, end, ok := validityWindow(doc); ok && start.After(end) {
		missing = append(missing, "Start must not be after End")
	}

	require("Plant", strings.TrimSpace(doc.Plant) != "")
	require("Location", strings.TrimSpace(doc.Location) != "")
	require("Equipment Name", strings.TrimSpace(doc.EquipmentName) != "")
	require("Equipment ID", strings.TrimSpace(doc.EquipmentID) != "")
	require("Work Description", len(strings.TrimSpace(doc.Description)) >= 10)
	require("Applicant Signature", doc.SignOff.Applicant.SignatureImage != "")
	require("Holder Signature", doc.SignOff.Holder.SignatureImage != "")
	require("Applicant Name", strings.TrimSpace(doc.SignOff.Applicant.Name) != "")
	require("Holder Name", strings.TrimSpace(doc.SignOff.Holder.Name) != "")

	return missing
}

// validityWindow combines the date and time fields into the permit
// validity bounds. It reports false unless all four parts parse.
func validityWindow(doc permit.Document) (time.Time, time.Time, bool) {
	layout := permit.DateLayout + " " + permit.TimeLayout
	start, err := time.Parse(layout, fmt.Sprintf("%s %s", doc.StartDate, doc.StartTime))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(layout, fmt.Sprintf("%s %s", doc.EndDate, doc.EndTime))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
