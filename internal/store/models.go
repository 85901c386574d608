package store

import "time"

// PermitRecord is the durable registry row for a submitted permit. The
// full document travels as a JSON snapshot; the flattened columns exist
// for listing and the search fallback.
type PermitRecord struct {
	PermitNumber      string
	CertificateNumber string
	PermitType        string
	DocType           string
	Status            string
	Plant             string
	Location          string
	EquipmentName     string
	EquipmentID       string
	Description       string
	Document          []byte
	SubmittedBy       string
	SubmittedAt       time.Time
	UpdatedAt         time.Time
}

// Registry statuses.
const (
	StatusSubmitted = "SUBMITTED"
	StatusClosed    = "CLOSED"
	StatusCancelled = "CANCELLED"
)

// RevalidationRecord is one logged validity extension of a submitted
// permit.
type RevalidationRecord struct {
	ID           int64
	PermitNumber string
	SlotID       int64
	Date         string
	TimeFrom     string
	TimeTo       string
	CreatedAt    time.Time
}
