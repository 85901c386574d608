// Package permit defines the permit-to-work document schema and the
// pure operations role views use to edit it. A document is never
// mutated in place: every operation returns a new value, and the field
// store is the only channel through which role views see each other's
// edits.
package permit

import (
	"fmt"
	"strings"
	"time"

	"permitdesk/api/internal/util"
)

type PermitType string

const (
	TypeHot   PermitType = "hot"
	TypeCold  PermitType = "cold"
	TypeOther PermitType = "other"
)

type DocType string

const (
	DocWork        DocType = "work"
	DocHighTension DocType = "highTension"
	DocGasLine     DocType = "gasLine"
)

type Role string

const (
	RoleRequester Role = "requester"
	RoleApprover  Role = "approver"
	RoleSafety    Role = "safety"
	RoleAdmin     Role = "admin"
)

// Layouts for the calendar-date and local-time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Attachment is an authoring-time file reference. ContentRef is either
// an object-store reference or an inline data URL.
type Attachment struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ContentRef string `json:"contentRef"`
}

// SafetyRow is one row of the two-column safety checklist. The first
// three rows carry reserved metadata instead of free text; rows beyond
// those are user-managed.
type SafetyRow struct {
	ID     string `json:"id"`
	LeftNo string `json:"leftNo"`
	Left   string `json:"left"`
	Remark string `json:"remark"`
	RightNo string `json:"rightNo"`
	Right  string `json:"right"`
	// Reserved metadata, meaningful on rows 0-2 only
	HiracNo      string `json:"hiracNo,omitempty"`
	SopNo        string `json:"sopNo,omitempty"`
	TbtConducted string `json:"tbtConducted,omitempty"`
}

// reservedSafetyRows is the count of leading checklist rows that carry
// metadata fields and cannot be removed; defaultSafetyRowCount is the
// size of the fixed checklist every new permit starts with.
const (
	reservedSafetyRows    = 3
	defaultSafetyRowCount = 10
)

// MatrixEntry is one cell of the PPE, fire precaution or certificate
// matrices. Remarks doubles as the certificate number on the
// certificate matrix.
type MatrixEntry struct {
	Checked bool   `json:"checked"`
	Remarks string `json:"remarks"`
}

// CustomItem is a user-added matrix row outside the controlled
// vocabulary.
type CustomItem struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
	Remarks string `json:"remarks"`
}

// Controlled vocabularies. Order matters for rendering and for the
// completion denominator.
var (
	PPEItems = []string{
		"safetyHelmet", "eyeProtection", "handGloves", "safetyShoes",
		"safetyBelt", "faceShield", "apron", "earPlug",
	}
	FireItems = []string{
		"fireWatcher", "fireExtinguisher", "fireBlanket", "waterHose",
		"sandBucket", "gasDetector", "nearbyHydrant", "sparkArrestor",
	}
	CertificateItems = []string{
		"confinedSpace", "excavation", "workAtHeight",
		"electricalIsolation", "radiography", "hotWork",
	}
)

// Party identifies one signatory of a sign-off block.
type Party struct {
	Name           string `json:"name"`
	ContactNo      string `json:"contactNo"`
	SignatureImage string `json:"signatureImage"`
	SAPID          string `json:"sapId,omitempty"`
}

// AuthoriserBlock is the authorising signatory with a nominated
// stand-in.
type AuthoriserBlock struct {
	Party
	Nominee Party `json:"nominee"`
}

type SignOffBlocks struct {
	Applicant  Party           `json:"applicant"`
	Holder     Party           `json:"holder"`
	Authoriser AuthoriserBlock `json:"authoriser"`
}

// ClosureSign is one role's sign-off on a permit closure action.
type ClosureSign struct {
	SignatureImage string `json:"signatureImage"`
	Name           string `json:"name"`
	Date           string `json:"date"`
	Time           string `json:"time"`
}

type ClosureBlock struct {
	Holder     ClosureSign `json:"holder"`
	Applicant  ClosureSign `json:"applicant"`
	Authoriser ClosureSign `json:"authoriser"`
}

type CancellationBlock struct {
	ClosureBlock
	Reason string `json:"reason"`
}

// Revalidation extends the permit validity window for one additional
// slot. IDs increase monotonically per document and survive removals.
type Revalidation struct {
	ID         int64       `json:"id"`
	Date       string      `json:"date"`
	TimeFrom   string      `json:"timeFrom"`
	TimeTo     string      `json:"timeTo"`
	Applicant  ClosureSign `json:"applicant"`
	Holder     ClosureSign `json:"holder"`
	Authoriser ClosureSign `json:"authoriser"`
}

type PermitStatus struct {
	WorkComplete    ClosureBlock      `json:"workComplete"`
	WorkNotComplete ClosureBlock      `json:"workNotComplete"`
	Cancellation    CancellationBlock `json:"cancellation"`
	Revalidations   []Revalidation    `json:"revalidations"`
	// next revalidation identity; never reused after removal
	RevalidationSeq int64 `json:"revalidationSeq"`
}

// HighTensionDetails is the extra section of the high-tension line
// variant.
type HighTensionDetails struct {
	LineDesignation string `json:"lineDesignation"`
	VoltageKV       string `json:"voltageKv"`
	EarthingPoints  string `json:"earthingPoints"`
	IsolationPoints string `json:"isolationPoints"`
	DischargeDone   bool   `json:"dischargeDone"`
}

// GasLineDetails is the extra section of the gas-line variant.
type GasLineDetails struct {
	LineContent    string `json:"lineContent"`
	PurgeCompleted bool   `json:"purgeCompleted"`
	GasTestReading string `json:"gasTestReading"`
	BlindsInserted bool   `json:"blindsInserted"`
}

// Document is the root aggregate for one permit instance.
type Document struct {
	PermitNumber      string     `json:"permitNumber"`
	CertificateNumber string     `json:"certificateNumber"`
	PermitType        PermitType `json:"permitType"`
	DocType           DocType    `json:"permitDocType"`

	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`

	Plant         string `json:"plant"`
	Location      string `json:"location"`
	EquipmentName string `json:"equipmentName"`
	EquipmentID   string `json:"equipmentId"`

	// DescriptionHTML is authoritative for rendering; Description is
	// its plain-text projection used for validation and search.
	Description     string `json:"description"`
	DescriptionHTML string `json:"descriptionHtml"`

	Attachments []Attachment `json:"attachments"`
	SafetyTable []SafetyRow  `json:"safetyTable"`

	PPE          map[string]MatrixEntry `json:"ppe"`
	Fire         map[string]MatrixEntry `json:"fire"`
	Certificates map[string]MatrixEntry `json:"certificates"`
	CustomItems  []CustomItem           `json:"customItems"`

	SignOff SignOffBlocks `json:"signOff"`
	Status  PermitStatus  `json:"status"`

	HighTension *HighTensionDetails `json:"highTension,omitempty"`
	GasLine     *GasLineDetails     `json:"gasLine,omitempty"`

	Submitted bool   `json:"submitted"`
	UpdatedBy string `json:"updatedBy,omitempty"`
}

// Header is the shared identity sub-document. Unlike comment bundles it
// has no single owning role: every role may read and write it, and the
// field store resolves races last-write-wins. The asymmetry is
// deliberate.
type Header struct {
	PermitNumber       string `json:"permitNumber"`
	CertificateNumber  string `json:"certificateNumber"`
	PermitRequester    string `json:"permitRequester"`
	PermitApprover1    string `json:"permitApprover1"`
	PermitApprover2    string `json:"permitApprover2"`
	SafetyManager      string `json:"safetyManager"`
	PermitIssueDate    string `json:"permitIssueDate"`
	ExpectedReturnDate string `json:"expectedReturnDate"`
}

// NewPermitNumber derives a unique permit number from the clock.
func NewPermitNumber(now time.Time) string {
	return "PTW-" + now.Format("060102-150405")
}

// NewDocument creates a permit with default values for the given
// variant. The permit number is generated once and treated as immutable
// after issue.
func NewDocument(docType DocType, now time.Time) Document {
	doc := Document{
		PermitNumber: NewPermitNumber(now),
		PermitType:   TypeHot,
		DocType:      docType,
		StartDate:    now.Format(DateLayout),
		EndDate:      now.Format(DateLayout),
		Attachments:  []Attachment{},
		SafetyTable:  defaultSafetyTable(),
		PPE:          emptyMatrix(PPEItems),
		Fire:         emptyMatrix(FireItems),
		Certificates: emptyMatrix(CertificateItems),
		CustomItems:  []CustomItem{},
		Status: PermitStatus{
			Revalidations:   []Revalidation{},
			RevalidationSeq: 1,
		},
	}
	switch docType {
	case DocHighTension:
		doc.HighTension = &HighTensionDetails{}
	case DocGasLine:
		doc.GasLine = &GasLineDetails{}
	}
	return doc
}

func emptyMatrix(vocab []string) map[string]MatrixEntry {
	m := make(map[string]MatrixEntry, len(vocab))
	for _, key := range vocab {
		m[key] = MatrixEntry{}
	}
	return m
}

// defaultSafetyTable seeds the fixed checklist. The first three rows
// carry reserved metadata; the left column numbers 1.1-2.0 and the
// right column 2.1 onward, matching the printed form.
func defaultSafetyTable() []SafetyRow {
	pairs := []struct {
		left, right string
	}{
		{"Work area inspected and cordoned off", "Surrounding area checked for combustibles"},
		{"Equipment isolated and de-energized", "Sewers and drains in the area covered"},
		{"Tool box talk conducted with crew", "Gas test conducted where applicable"},
		{"Equipment depressurized and drained", "Standby person positioned at site"},
		{"Blinds and spades inserted", "Escape routes identified and kept clear"},
		{"Lockout and tagout applied", "Fire extinguisher available at site"},
		{"Lines flushed and purged", "Running water or hose available"},
		{"Ventilation found adequate", "Communication arrangement confirmed"},
		{"Illumination found adequate", "Adjoining units informed of the work"},
		{"Scaffolding checked and tagged", "Area sign boards displayed"},
	}
	rows := make([]SafetyRow, 0, len(pairs))
	for i, p := range pairs {
		row := SafetyRow{
			ID:      util.NewID("sr"),
			LeftNo:  fmt.Sprintf("1.%d", i+1),
			Left:    p.left,
			RightNo: fmt.Sprintf("2.%d", i+1),
			Right:   p.right,
		}
		if i == 9 {
			row.LeftNo = "2.0"
		}
		rows = append(rows, row)
	}
	return rows
}

// Clone returns a deep copy. Lists and maps are copied so callers can
// build a new document without touching the input.
func (d Document) Clone() Document {
	out := d
	out.Attachments = append([]Attachment{}, d.Attachments...)
	out.SafetyTable = append([]SafetyRow{}, d.SafetyTable...)
	out.CustomItems = append([]CustomItem{}, d.CustomItems...)
	out.PPE = cloneMatrix(d.PPE)
	out.Fire = cloneMatrix(d.Fire)
	out.Certificates = cloneMatrix(d.Certificates)
	out.Status.Revalidations = append([]Revalidation{}, d.Status.Revalidations...)
	if d.HighTension != nil {
		ht := *d.HighTension
		out.HighTension = &ht
	}
	if d.GasLine != nil {
		gl := *d.GasLine
		out.GasLine = &gl
	}
	return out
}

func cloneMatrix(m map[string]MatrixEntry) map[string]MatrixEntry {
	out := make(map[string]MatrixEntry, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// WithDescriptionHTML sets the rich description and refreshes its
// plain-text projection in the same operation.
func WithDescriptionHTML(doc Document, html string) Document {
	out := doc.Clone()
	out.DescriptionHTML = html
	out.Description = StripHTML(html)
	return out
}

// StripHTML projects rich text to plain text for length validation and
// search indexing.
func StripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// AddAttachment appends a file reference with a stable generated id.
func AddAttachment(doc Document, name, contentRef string) Document {
	out := doc.Clone()
	out.Attachments = append(out.Attachments, Attachment{
		ID:         util.NewID("att"),
		Name:       name,
		ContentRef: contentRef,
	})
	return out
}

// RemoveAttachment removes the attachment with the given id. Unknown
// ids leave the document unchanged.
func RemoveAttachment(doc Document, id string) Document {
	out := doc.Clone()
	out.Attachments = removeAttachmentByID(out.Attachments, id)
	return out
}

func removeAttachmentByID(items []Attachment, id string) []Attachment {
	live := items[:0]
	for _, item := range items {
		if item.ID != id {
			live = append(live, item)
		}
	}
	return live
}

// AddSafetyRow appends a user row after the fixed checklist.
func AddSafetyRow(doc Document, left, remark, right string) Document {
	out := doc.Clone()
	n := len(out.SafetyTable) + 1
	out.SafetyTable = append(out.SafetyTable, SafetyRow{
		ID:      util.NewID("sr"),
		LeftNo:  fmt.Sprintf("1.%d", n),
		Left:    left,
		Remark:  remark,
		RightNo: fmt.Sprintf("2.%d", n),
		Right:   right,
	})
	return out
}

// RemoveSafetyRow removes a user-added row by id. The reserved metadata
// rows are never removable.
func RemoveSafetyRow(doc Document, id string) Document {
	out := doc.Clone()
	for i, row := range out.SafetyTable {
		if row.ID == id && i >= reservedSafetyRows {
			out.SafetyTable = append(out.SafetyTable[:i], out.SafetyTable[i+1:]...)
			return out
		}
	}
	return out
}

// AddCustomItem appends an open-vocabulary matrix row.
func AddCustomItem(doc Document, label string) Document {
	if strings.TrimSpace(label) == "" {
		return doc
	}
	out := doc.Clone()
	out.CustomItems = append(out.CustomItems, CustomItem{
		ID:    util.NewID("ci"),
		Label: label,
	})
	return out
}

// RemoveCustomItem removes a custom matrix row by id.
func RemoveCustomItem(doc Document, id string) Document {
	out := doc.Clone()
	live := out.CustomItems[:0]
	for _, item := range out.CustomItems {
		if item.ID != id {
			live = append(live, item)
		}
	}
	out.CustomItems = live
	return out
}

// AddRevalidation appends an empty revalidation slot with the next
// monotonic id.
func AddRevalidation(doc Document) Document {
	out := doc.Clone()
	out.Status.Revalidations = append(out.Status.Revalidations, Revalidation{
		ID: out.Status.RevalidationSeq,
	})
	out.Status.RevalidationSeq++
	return out
}

// RemoveRevalidation removes a revalidation slot by id. Remaining slots
// keep their ids; the sequence never rewinds.
func RemoveRevalidation(doc Document, id int64) Document {
	out := doc.Clone()
	live := out.Status.Revalidations[:0]
	for _, r := range out.Status.Revalidations {
		if r.ID != id {
			live = append(live, r)
		}
	}
	out.Status.Revalidations = live
	return out
}
