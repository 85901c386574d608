package search

import (
	"context"
	"log"
	"unicode/utf8"

	"permitdesk/api/internal/store"
)

// Registry is the durable permit store the service falls back to when
// Meilisearch is unavailable.
type Registry interface {
	SearchPermits(ctx context.Context, query string, limit int) ([]store.PermitRecord, error)
	ListPermits(ctx context.Context) ([]store.PermitRecord, error)
}

// Service is the facade that tries Meilisearch first and falls back to
// the registry's ILIKE search.
type Service struct {
	meili    *Meili
	registry Registry
}

// NewService creates a search service. meili may be nil if Meilisearch
// is not configured.
func NewService(meili *Meili, registry Registry) *Service {
	return &Service{meili: meili, registry: registry}
}

// Search tries Meilisearch if healthy, otherwise queries the registry.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to registry: %v", err)
	}

	records, err := s.registry.SearchPermits(ctx, q.Text, q.Limit)
	if err != nil {
		log.Printf("search: registry fallback error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		if q.FilterDocType != "" && rec.DocType != q.FilterDocType {
			continue
		}
		if q.FilterStatus != "" && rec.Status != q.FilterStatus {
			continue
		}
		if q.FilterPlant != "" && rec.Plant != q.FilterPlant {
			continue
		}
		results = append(results, recordToResult(rec))
	}
	return Response{Results: results, Total: len(results), Query: q.Text}
}

// IndexPermit pushes one permit into the index (fire-and-forget).
func (s *Service) IndexPermit(rec PermitRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexPermit(rec); err != nil {
			log.Printf("search: index permit %s: %v", rec.PermitNumber, err)
		}
	}()
}

// DeletePermit removes a permit from the index (fire-and-forget).
func (s *Service) DeletePermit(permitNumber string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeletePermit(permitNumber); err != nil {
			log.Printf("search: delete permit %s: %v", permitNumber, err)
		}
	}()
}

// ReindexAll reads every registered permit and pushes it to
// Meilisearch. Called at startup when the index may be cold.
func (s *Service) ReindexAll(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.registry == nil {
		return
	}

	records, err := s.registry.ListPermits(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}

	indexable := make([]PermitRecord, 0, len(records))
	for _, rec := range records {
		indexable = append(indexable, RecordFromRegistry(rec))
	}
	if err := s.meili.IndexPermits(indexable); err != nil {
		log.Printf("search: reindex permits: %v", err)
	}
}

// RecordFromRegistry projects a registry row into its indexable form.
func RecordFromRegistry(rec store.PermitRecord) PermitRecord {
	return PermitRecord{
		PermitNumber:  rec.PermitNumber,
		DocType:       rec.DocType,
		Status:        rec.Status,
		Plant:         rec.Plant,
		Location:      rec.Location,
		EquipmentName: rec.EquipmentName,
		Description:   rec.Description,
	}
}

func nonNil(results []Result) []Result {
	if results == nil {
		return []Result{}
	}
	return results
}

func recordToResult(rec store.PermitRecord) Result {
	snippet := rec.Description
	if len(snippet) > 160 {
		cut := 160
		// back off to a rune boundary so the cut never emits invalid UTF-8
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
	}
	return Result{
		PermitNumber: rec.PermitNumber,
		DocType:      rec.DocType,
		Status:       rec.Status,
		Plant:        rec.Plant,
		Title:        rec.EquipmentName,
		Snippet:      snippet,
	}
}
