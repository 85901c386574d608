package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrPermitNotFound is returned when a permit number is not registered.
var ErrPermitNotFound = errors.New("store: permit not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// UpsertPermit registers a submitted permit or refreshes its snapshot.
// Permits stay mutable after submission, so resubmission overwrites.
func (s *PostgresStore) UpsertPermit(ctx context.Context, rec PermitRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO permits (
			permit_number, certificate_number, permit_type, doc_type, status,
			plant, location, equipment_name, equipment_id, description,
			document, submitted_by, submitted_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW())
		ON CONFLICT (permit_number) DO UPDATE SET
			certificate_number=EXCLUDED.certificate_number,
			permit_type=EXCLUDED.permit_type,
			doc_type=EXCLUDED.doc_type,
			status=EXCLUDED.status,
			plant=EXCLUDED.plant,
			location=EXCLUDED.location,
			equipment_name=EXCLUDED.equipment_name,
			equipment_id=EXCLUDED.equipment_id,
			description=EXCLUDED.description,
			document=EXCLUDED.document,
			submitted_by=EXCLUDED.submitted_by,
			updated_at=NOW()
	`, rec.PermitNumber, rec.CertificateNumber, rec.PermitType, rec.DocType, rec.Status,
		rec.Plant, rec.Location, rec.EquipmentName, rec.EquipmentID, rec.Description,
		rec.Document, rec.SubmittedBy)
	if err != nil {
		return fmt.Errorf("upsert permit %s: %w", rec.PermitNumber, err)
	}
	return nil
}

const permitColumns = `
	permit_number, certificate_number, permit_type, doc_type, status,
	plant, location, equipment_name, equipment_id, description,
	document, submitted_by, submitted_at, updated_at
`

func scanPermit(row interface{ Scan(...any) error }) (PermitRecord, error) {
	var rec PermitRecord
	err := row.Scan(
		&rec.PermitNumber, &rec.CertificateNumber, &rec.PermitType, &rec.DocType, &rec.Status,
		&rec.Plant, &rec.Location, &rec.EquipmentName, &rec.EquipmentID, &rec.Description,
		&rec.Document, &rec.SubmittedBy, &rec.SubmittedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func (s *PostgresStore) GetPermit(ctx context.Context, permitNumber string) (PermitRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+permitColumns+` FROM permits WHERE permit_number=$1`, permitNumber)
	rec, err := scanPermit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PermitRecord{}, ErrPermitNotFound
	}
	if err != nil {
		return PermitRecord{}, fmt.Errorf("get permit %s: %w", permitNumber, err)
	}
	return rec, nil
}

func (s *PostgresStore) ListPermits(ctx context.Context) ([]PermitRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+permitColumns+` FROM permits ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list permits: %w", err)
	}
	defer rows.Close()

	var records []PermitRecord
	for rows.Next() {
		rec, err := scanPermit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan permit: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) UpdatePermitStatus(ctx context.Context, permitNumber, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE permits SET status=$2, updated_at=NOW() WHERE permit_number=$1`,
		permitNumber, status)
	if err != nil {
		return fmt.Errorf("update permit status %s: %w", permitNumber, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrPermitNotFound
	}
	return nil
}

// SearchPermits is the registry fallback when the search index is
// unavailable.
func (s *PostgresStore) SearchPermits(ctx context.Context, query string, limit int) ([]PermitRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+permitColumns+`
		FROM permits
		WHERE permit_number ILIKE $1
			OR plant ILIKE $1
			OR location ILIKE $1
			OR equipment_name ILIKE $1
			OR description ILIKE $1
		ORDER BY submitted_at DESC
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search permits: %w", err)
	}
	defer rows.Close()

	var records []PermitRecord
	for rows.Next() {
		rec, err := scanPermit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan permit: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) InsertRevalidation(ctx context.Context, rec RevalidationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revalidation_log (permit_number, slot_id, date, time_from, time_to)
		VALUES ($1,$2,$3,$4,$5)
	`, rec.PermitNumber, rec.SlotID, rec.Date, rec.TimeFrom, rec.TimeTo)
	if err != nil {
		return fmt.Errorf("insert revalidation for %s: %w", rec.PermitNumber, err)
	}
	return nil
}

func (s *PostgresStore) ListRevalidations(ctx context.Context, permitNumber string) ([]RevalidationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, permit_number, slot_id, date, time_from, time_to, created_at
		FROM revalidation_log
		WHERE permit_number=$1
		ORDER BY id
	`, permitNumber)
	if err != nil {
		return nil, fmt.Errorf("list revalidations for %s: %w", permitNumber, err)
	}
	defer rows.Close()

	var records []RevalidationRecord
	for rows.Next() {
		var rec RevalidationRecord
		if err := rows.Scan(&rec.ID, &rec.PermitNumber, &rec.SlotID, &rec.Date, &rec.TimeFrom, &rec.TimeTo, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revalidation: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
