package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"permitdesk/api/internal/blob"
	"permitdesk/api/internal/fieldstore"
	"permitdesk/api/internal/permit"
	"permitdesk/api/internal/printview"
	"permitdesk/api/internal/search"
	"permitdesk/api/internal/signature"
	"permitdesk/api/internal/store"
	"permitdesk/api/internal/wizard"
)

// maxAttachmentBytes bounds a single inline attachment upload.
const maxAttachmentBytes = 5 << 20

// PermitRegistry is the durable store for submitted permits.
type PermitRegistry interface {
	UpsertPermit(ctx context.Context, rec store.PermitRecord) error
	GetPermit(ctx context.Context, permitNumber string) (store.PermitRecord, error)
	ListPermits(ctx context.Context) ([]store.PermitRecord, error)
	UpdatePermitStatus(ctx context.Context, permitNumber, status string) error
	InsertRevalidation(ctx context.Context, rec store.RevalidationRecord) error
	ListRevalidations(ctx context.Context, permitNumber string) ([]store.RevalidationRecord, error)
	Ping(ctx context.Context) error
}

// SearchIndex accepts permits for indexing and serves queries.
type SearchIndex interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexPermit(rec search.PermitRecord)
	DeletePermit(permitNumber string)
}

// Service orchestrates the authoring field store, the permit registry,
// search and print export. One working document exists per permit
// variant; the variants persist independently so switching between them
// never destroys the inactive one.
type Service struct {
	fields   fieldstore.Store
	registry PermitRegistry
	search   SearchIndex
	blobs    *blob.Store
	now      func() time.Time

	mu      sync.Mutex
	wizards map[permit.DocType]*wizard.Wizard
	pads    map[string]*signature.Pad
}

func NewService(fields fieldstore.Store, registry PermitRegistry, idx SearchIndex, blobs *blob.Store) *Service {
	return &Service{
		fields:   fields,
		registry: registry,
		search:   idx,
		blobs:    blobs,
		now:      time.Now,
		wizards:  make(map[permit.DocType]*wizard.Wizard),
		pads:     make(map[string]*signature.Pad),
	}
}

func docKey(docType permit.DocType) string {
	return "permit-doc:" + string(docType)
}

func parseDocType(raw string) (permit.DocType, error) {
	switch permit.DocType(raw) {
	case permit.DocWork, permit.DocHighTension, permit.DocGasLine:
		return permit.DocType(raw), nil
	}
	return "", errValidation("Unknown permit variant", map[string]any{"docType": raw})
}

func parseRole(raw string) (permit.Role, error) {
	switch permit.Role(raw) {
	case permit.RoleRequester, permit.RoleApprover, permit.RoleSafety, permit.RoleAdmin:
		return permit.Role(raw), nil
	}
	return "", errValidation("Unknown role", map[string]any{"role": raw})
}

func knownEdgeKey(key string) bool {
	for _, edge := range permit.CommentEdges {
		if edge.Key == key {
			return true
		}
	}
	return false
}

// loadDocument returns the working document for a variant, creating a
// fresh one on first access.
func (s *Service) loadDocument(ctx context.Context, docType permit.DocType) (permit.Document, error) {
	var doc permit.Document
	found, err := fieldstore.Load(ctx, s.fields, docKey(docType), &doc)
	if err != nil {
		return permit.Document{}, fmt.Errorf("load document %s: %w", docType, err)
	}
	if !found {
		doc = permit.NewDocument(docType, s.now())
		if err := s.saveDocument(ctx, doc); err != nil {
			return permit.Document{}, err
		}
	}
	return doc, nil
}

func (s *Service) saveDocument(ctx context.Context, doc permit.Document) error {
	if err := fieldstore.Save(ctx, s.fields, docKey(doc.DocType), doc); err != nil {
		return fmt.Errorf("save document %s: %w", doc.DocType, err)
	}
	return nil
}

// CreatePermit discards any working document for the variant and starts
// a fresh one with a new permit number. The shared header picks up the
// number so every role sees it.
func (s *Service) CreatePermit(ctx context.Context, docType string) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}

	doc := permit.NewDocument(dt, s.now())
	if err := s.saveDocument(ctx, doc); err != nil {
		return permit.Document{}, err
	}

	header, err := s.Header(ctx)
	if err != nil {
		log.Printf("app: header load after create: %v", err)
	} else {
		header.PermitNumber = doc.PermitNumber
		if err := s.SaveHeader(ctx, header); err != nil {
			log.Printf("app: header update after create: %v", err)
		}
	}

	s.mu.Lock()
	s.wizards[dt] = wizard.New()
	s.mu.Unlock()

	return doc, nil
}

// Document returns the working document for a variant.
func (s *Service) Document(ctx context.Context, docType string) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}
	return s.loadDocument(ctx, dt)
}

// UpdateField sets one dotted-path field on the working document and
// persists the result. Description edits route through the HTML setter
// so the plain-text projection stays in sync.
func (s *Service) UpdateField(ctx context.Context, docType, path string, value any) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return permit.Document{}, err
	}

	if path == "descriptionHtml" {
		html, ok := value.(string)
		if !ok {
			return doc, errValidation("Description must be a string", map[string]any{"path": path})
		}
		doc = permit.WithDescriptionHTML(doc, html)
	} else {
		doc, err = permit.WithField(doc, path, value)
		if err != nil {
			var fieldErr *permit.FieldError
			if errors.As(err, &fieldErr) {
				return doc, errValidation("Field rejected", map[string]any{"path": fieldErr.Path, "reason": fieldErr.Reason})
			}
			return doc, err
		}
	}

	if err := s.saveDocument(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// SetDescription replaces the rich-text work description.
func (s *Service) SetDescription(ctx context.Context, docType, html string) (permit.Document, error) {
	return s.UpdateField(ctx, docType, "descriptionHtml", html)
}

// AddAttachment stores the uploaded bytes and records a reference on
// the document. With an object store configured the reference is the
// object name; otherwise the bytes inline as a data URL.
func (s *Service) AddAttachment(ctx context.Context, docType, name string, data []byte, contentType string) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}
	if len(data) == 0 {
		return permit.Document{}, errValidation("Attachment is empty", map[string]any{"name": name})
	}
	if len(data) > maxAttachmentBytes {
		return permit.Document{}, domainError(http.StatusRequestEntityTooLarge, "ATTACHMENT_TOO_LARGE", "Attachment exceeds the upload limit", nil)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	var contentRef string
	if s.blobs.Configured() {
		objectName, err := s.blobs.Put(ctx, name, data, contentType)
		if err != nil {
			return permit.Document{}, fmt.Errorf("store attachment: %w", err)
		}
		contentRef = objectName
	} else {
		contentRef = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	}

	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return permit.Document{}, err
	}
	doc = permit.AddAttachment(doc, name, contentRef)
	if err := s.saveDocument(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// RemoveAttachment drops an attachment by id and cleans up the stored
// object when one exists.
func (s *Service) RemoveAttachment(ctx context.Context, docType, id string) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return permit.Document{}, err
	}

	var contentRef string
	for _, att := range doc.Attachments {
		if att.ID == id {
			contentRef = att.ContentRef
			break
		}
	}
	if contentRef == "" {
		return doc, errNotFound("Attachment not found")
	}

	doc = permit.RemoveAttachment(doc, id)
	if err := s.saveDocument(ctx, doc); err != nil {
		return doc, err
	}

	if s.blobs.Configured() && !strings.HasPrefix(contentRef, "data:") {
		if err := s.blobs.Remove(ctx, contentRef); err != nil {
			log.Printf("app: remove attachment object %s: %v", contentRef, err)
		}
	}
	return doc, nil
}

// AddSafetyRow appends a user row to the safety checklist.
func (s *Service) AddSafetyRow(ctx context.Context, docType, left, remark, right string) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return permit.Document{}, err
	}
	doc = permit.AddSafetyRow(doc, left, remark, right)
	if err := s.saveDocument(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// RemoveSafetyRow removes a checklist row by id. Reserved rows and
// unknown ids are rejected.
func (s *Service) RemoveSafetyRow(ctx context.Context, docType, id string) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return permit.Document{}, err
	}
	updated := permit.RemoveSafetyRow(doc, id)
	if len(updated.SafetyTable) == len(doc.SafetyTable) {
		return doc, errValidation("Row cannot be removed", map[string]any{"id": id})
	}
	if err := s.saveDocument(ctx, updated); err != nil {
		return updated, err
	}
	return updated, nil
}

// AddCustomItem appends a user-defined matrix row.
func (s *Service) AddCustomItem(ctx context.Context, docType, label string) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}
	if strings.TrimSpace(label) == "" {
		return permit.Document{}, errValidation("Item label is blank", nil)
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return permit.Document{}, err
	}
	doc = permit.AddCustomItem(doc, label)
	if err := s.saveDocument(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// RemoveCustomItem removes a user-defined matrix row by id.
func (s *Service) RemoveCustomItem(ctx context.Context, docType, id string) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return permit.Document{}, err
	}
	doc = permit.RemoveCustomItem(doc, id)
	if err := s.saveDocument(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// AddRevalidation opens a new validity-extension slot. Submitted
// permits also log the slot in the registry.
func (s *Service) AddRevalidation(ctx context.Context, docType string) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return permit.Document{}, err
	}
	doc = permit.AddRevalidation(doc)
	if err := s.saveDocument(ctx, doc); err != nil {
		return doc, err
	}

	if doc.Submitted && len(doc.Status.Revalidations) > 0 {
		slot := doc.Status.Revalidations[len(doc.Status.Revalidations)-1]
		rec := store.RevalidationRecord{
			PermitNumber: doc.PermitNumber,
			SlotID:       slot.ID,
			Date:         slot.Date,
			TimeFrom:     slot.TimeFrom,
			TimeTo:       slot.TimeTo,
		}
		if err := s.registry.InsertRevalidation(ctx, rec); err != nil {
			log.Printf("app: log revalidation for %s: %v", doc.PermitNumber, err)
		}
	}
	return doc, nil
}

// RemoveRevalidation drops a validity-extension slot by id.
func (s *Service) RemoveRevalidation(ctx context.Context, docType string, id int64) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return permit.Document{}, err
	}
	doc = permit.RemoveRevalidation(doc, id)
	if err := s.saveDocument(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// signBlockField resolves a sign-off block name to a setter on the
// document.
func signBlockField(doc *permit.Document, block string) (*string, error) {
	switch block {
	case "applicant":
		return &doc.SignOff.Applicant.SignatureImage, nil
	case "holder":
		return &doc.SignOff.Holder.SignatureImage, nil
	case "authoriser":
		return &doc.SignOff.Authoriser.SignatureImage, nil
	case "nominee":
		return &doc.SignOff.Authoriser.Nominee.SignatureImage, nil
	}
	return nil, errValidation("Unknown signature block", map[string]any{"block": block})
}

// UploadSignature validates an uploaded image and binds it to a
// sign-off block.
func (s *Service) UploadSignature(ctx context.Context, docType, block string, data []byte) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}

	artifact, err := signature.FromUpload(data)
	if err != nil {
		switch {
		case errors.Is(err, signature.ErrUploadTooLarge):
			return permit.Document{}, domainError(http.StatusRequestEntityTooLarge, "SIGNATURE_TOO_LARGE", "Signature image exceeds the upload limit", nil)
		case errors.Is(err, signature.ErrUnsupportedFormat):
			return permit.Document{}, domainError(http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", "Signature must be a PNG or JPEG image", nil)
		}
		return permit.Document{}, err
	}

	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return permit.Document{}, err
	}
	field, err := signBlockField(&doc, block)
	if err != nil {
		return doc, err
	}
	*field = artifact.DataURL()
	if err := s.saveDocument(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

func (s *Service) pad(docType permit.DocType, block string) *signature.Pad {
	key := string(docType) + "/" + block
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pads[key]
	if !ok {
		p = signature.NewPad(0, 0)
		s.pads[key] = p
	}
	return p
}

// StrokeSignature appends one drawn stroke to the pad for a block.
func (s *Service) StrokeSignature(docType, block string, points []signature.Point) error {
	dt, err := parseDocType(docType)
	if err != nil {
		return err
	}
	if _, err := signBlockField(&permit.Document{}, block); err != nil {
		return err
	}
	s.pad(dt, block).Stroke(points)
	return nil
}

// ClearSignature wipes the drawing pad for a block.
func (s *Service) ClearSignature(docType, block string) error {
	dt, err := parseDocType(docType)
	if err != nil {
		return err
	}
	if _, err := signBlockField(&permit.Document{}, block); err != nil {
		return err
	}
	s.pad(dt, block).Clear()
	return nil
}

// CaptureSignature rasterises the pad onto the sign-off block. An empty
// pad clears the field instead of failing.
func (s *Service) CaptureSignature(ctx context.Context, docType, block string) (permit.Document, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return permit.Document{}, err
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return permit.Document{}, err
	}
	field, err := signBlockField(&doc, block)
	if err != nil {
		return doc, err
	}

	artifact := s.pad(dt, block).Capture()
	if artifact == nil {
		*field = ""
	} else {
		*field = artifact.DataURL()
	}
	if err := s.saveDocument(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// WizardState describes where the step wizard stands for a variant.
type WizardState struct {
	Step      int    `json:"step"`
	Title     string `json:"title"`
	StepCount int    `json:"stepCount"`
}

func (s *Service) wizardFor(docType permit.DocType) *wizard.Wizard {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wizards[docType]
	if !ok {
		w = wizard.New()
		s.wizards[docType] = w
	}
	return w
}

// Wizard reports the current step for a variant.
func (s *Service) Wizard(docType string) (WizardState, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return WizardState{}, err
	}
	w := s.wizardFor(dt)
	return WizardState{Step: int(w.Current()), Title: w.Current().Title(), StepCount: wizard.StepCount()}, nil
}

// WizardNext advances the wizard. The first step gates on the basic
// details; the final step submits the permit.
func (s *Service) WizardNext(ctx context.Context, docType string) (wizard.Outcome, WizardState, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return wizard.Outcome{}, WizardState{}, err
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return wizard.Outcome{}, WizardState{}, err
	}

	w := s.wizardFor(dt)
	outcome := w.Next(doc)
	if outcome.Submitted {
		if err := s.SubmitPermit(ctx, docType); err != nil {
			return outcome, WizardState{}, err
		}
	}
	state := WizardState{Step: int(w.Current()), Title: w.Current().Title(), StepCount: wizard.StepCount()}
	return outcome, state, nil
}

// WizardPrev steps the wizard back.
func (s *Service) WizardPrev(docType string) (WizardState, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return WizardState{}, err
	}
	w := s.wizardFor(dt)
	w.Prev()
	return WizardState{Step: int(w.Current()), Title: w.Current().Title(), StepCount: wizard.StepCount()}, nil
}

// WizardGoTo jumps to an arbitrary step without validation.
func (s *Service) WizardGoTo(docType string, step int) (WizardState, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return WizardState{}, err
	}
	w := s.wizardFor(dt)
	if !w.GoTo(wizard.Step(step)) {
		return WizardState{}, errValidation("Step out of range", map[string]any{"step": step})
	}
	return WizardState{Step: int(w.Current()), Title: w.Current().Title(), StepCount: wizard.StepCount()}, nil
}

// Completion reports the weighted overall completion and the PPE/fire
// matrix completion for a variant.
type Completion struct {
	Overall int `json:"overall"`
	PPEFire int `json:"ppeFire"`
}

func (s *Service) Completion(ctx context.Context, docType string) (Completion, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return Completion{}, err
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return Completion{}, err
	}
	return Completion{
		Overall: permit.CompletionPercent(doc),
		PPEFire: permit.PPEFireCompletionPercent(doc),
	}, nil
}

// SubmitPermit snapshots the working document into the registry and
// queues it for indexing.
func (s *Service) SubmitPermit(ctx context.Context, docType string) error {
	dt, err := parseDocType(docType)
	if err != nil {
		return err
	}
	doc, err := s.loadDocument(ctx, dt)
	if err != nil {
		return err
	}

	doc.Submitted = true
	if err := s.saveDocument(ctx, doc); err != nil {
		return err
	}

	snapshot, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal permit snapshot: %w", err)
	}

	rec := store.PermitRecord{
		PermitNumber:      doc.PermitNumber,
		CertificateNumber: doc.CertificateNumber,
		PermitType:        string(doc.PermitType),
		DocType:           string(doc.DocType),
		Status:            store.StatusSubmitted,
		Plant:             doc.Plant,
		Location:          doc.Location,
		EquipmentName:     doc.EquipmentName,
		EquipmentID:       doc.EquipmentID,
		Description:       doc.Description,
		Document:          snapshot,
		SubmittedBy:       doc.SignOff.Applicant.Name,
		SubmittedAt:       s.now(),
	}
	if err := s.registry.UpsertPermit(ctx, rec); err != nil {
		return fmt.Errorf("register permit %s: %w", doc.PermitNumber, err)
	}

	s.search.IndexPermit(search.RecordFromRegistry(rec))
	return nil
}

// Permits lists every registered permit.
func (s *Service) Permits(ctx context.Context) ([]store.PermitRecord, error) {
	records, err := s.registry.ListPermits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permits: %w", err)
	}
	return records, nil
}

// Permit fetches one registered permit by number.
func (s *Service) Permit(ctx context.Context, permitNumber string) (store.PermitRecord, error) {
	rec, err := s.registry.GetPermit(ctx, permitNumber)
	if err != nil {
		if errors.Is(err, store.ErrPermitNotFound) {
			return store.PermitRecord{}, errNotFound("Permit not found")
		}
		return store.PermitRecord{}, err
	}
	return rec, nil
}

// ClosePermit marks a registered permit closed or cancelled.
func (s *Service) ClosePermit(ctx context.Context, permitNumber, status string) error {
	if status != store.StatusClosed && status != store.StatusCancelled {
		return errValidation("Status must be CLOSED or CANCELLED", map[string]any{"status": status})
	}
	if err := s.registry.UpdatePermitStatus(ctx, permitNumber, status); err != nil {
		if errors.Is(err, store.ErrPermitNotFound) {
			return errNotFound("Permit not found")
		}
		return err
	}
	if status == store.StatusCancelled {
		s.search.DeletePermit(permitNumber)
	}
	return nil
}

// Revalidations lists the logged validity extensions of a registered
// permit.
func (s *Service) Revalidations(ctx context.Context, permitNumber string) ([]store.RevalidationRecord, error) {
	records, err := s.registry.ListRevalidations(ctx, permitNumber)
	if err != nil {
		return nil, fmt.Errorf("list revalidations: %w", err)
	}
	return records, nil
}

// CommentBundle reads the bundle stored under one edge key. Any role
// may read any bundle; absent bundles come back in default shape.
func (s *Service) CommentBundle(ctx context.Context, edgeKey string) (permit.CommentBundle, error) {
	if !knownEdgeKey(edgeKey) {
		return permit.CommentBundle{}, errNotFound("Unknown comment channel")
	}
	return permit.LoadIncoming(ctx, s.fields, edgeKey)
}

// SaveCommentBundle writes a whole bundle. Ownership is advisory: a
// role writing a bundle it does not own is logged, not refused.
func (s *Service) SaveCommentBundle(ctx context.Context, role, edgeKey string, bundle permit.CommentBundle) error {
	r, err := parseRole(role)
	if err != nil {
		return err
	}
	if !knownEdgeKey(edgeKey) {
		return errNotFound("Unknown comment channel")
	}
	if !permit.OwnsBundle(r, edgeKey) {
		log.Printf("app: role %s writing non-owned bundle %s", r, edgeKey)
	}
	return permit.SaveOutgoing(ctx, s.fields, edgeKey, bundle)
}

// AddComment appends a custom comment to a bundle.
func (s *Service) AddComment(ctx context.Context, role, edgeKey, text string) (permit.CommentBundle, error) {
	bundle, err := s.CommentBundle(ctx, edgeKey)
	if err != nil {
		return permit.CommentBundle{}, err
	}
	bundle = permit.AddCustomComment(bundle, text)
	if err := s.SaveCommentBundle(ctx, role, edgeKey, bundle); err != nil {
		return bundle, err
	}
	return bundle, nil
}

// ToggleComment flips the checkbox of one custom comment.
func (s *Service) ToggleComment(ctx context.Context, role, edgeKey, id string) (permit.CommentBundle, error) {
	bundle, err := s.CommentBundle(ctx, edgeKey)
	if err != nil {
		return permit.CommentBundle{}, err
	}
	bundle = permit.ToggleCustomComment(bundle, id)
	if err := s.SaveCommentBundle(ctx, role, edgeKey, bundle); err != nil {
		return bundle, err
	}
	return bundle, nil
}

// RemoveComment deletes one custom comment by id.
func (s *Service) RemoveComment(ctx context.Context, role, edgeKey, id string) (permit.CommentBundle, error) {
	bundle, err := s.CommentBundle(ctx, edgeKey)
	if err != nil {
		return permit.CommentBundle{}, err
	}
	bundle = permit.RemoveCustomComment(bundle, id)
	if err := s.SaveCommentBundle(ctx, role, edgeKey, bundle); err != nil {
		return bundle, err
	}
	return bundle, nil
}

// Header reads the shared permit header.
func (s *Service) Header(ctx context.Context) (permit.Header, error) {
	var header permit.Header
	if _, err := fieldstore.Load(ctx, s.fields, fieldstore.KeyPermitHeader, &header); err != nil {
		return permit.Header{}, fmt.Errorf("load header: %w", err)
	}
	return header, nil
}

// SaveHeader writes the shared permit header. Whole-value writes, last
// write wins.
func (s *Service) SaveHeader(ctx context.Context, header permit.Header) error {
	if err := fieldstore.Save(ctx, s.fields, fieldstore.KeyPermitHeader, header); err != nil {
		return fmt.Errorf("save header: %w", err)
	}
	return nil
}

type activeRole struct {
	Role string `json:"role"`
}

// ActiveRole reads the advisory active-role marker shared across
// screens.
func (s *Service) ActiveRole(ctx context.Context) (string, error) {
	var marker activeRole
	found, err := fieldstore.Load(ctx, s.fields, fieldstore.KeyActiveRole, &marker)
	if err != nil {
		return "", fmt.Errorf("load active role: %w", err)
	}
	if !found || marker.Role == "" {
		return string(permit.RoleRequester), nil
	}
	return marker.Role, nil
}

// SetActiveRole records which role is driving the UI.
func (s *Service) SetActiveRole(ctx context.Context, role string) error {
	r, err := parseRole(role)
	if err != nil {
		return err
	}
	if err := fieldstore.Save(ctx, s.fields, fieldstore.KeyActiveRole, activeRole{Role: string(r)}); err != nil {
		return fmt.Errorf("save active role: %w", err)
	}
	return nil
}

// VariantSwitch is the result of moving the authoring context to a
// different permit variant.
type VariantSwitch struct {
	Document      permit.Document `json:"document"`
	DroppedFields []string        `json:"droppedFields"`
}

// SwitchVariant moves the authoring context to the target variant and
// reports which populated source sections do not transfer. Every
// variant persists under its own key: a previously authored target
// document is resumed as-is, and only an untouched target gets seeded
// fresh with the identity fields carried over.
func (s *Service) SwitchVariant(ctx context.Context, from, target string) (VariantSwitch, error) {
	fromType, err := parseDocType(from)
	if err != nil {
		return VariantSwitch{}, err
	}
	targetType, err := parseDocType(target)
	if err != nil {
		return VariantSwitch{}, err
	}
	if fromType == targetType {
		return VariantSwitch{}, errBadRequest("Source and target variant are the same")
	}

	doc, err := s.loadDocument(ctx, fromType)
	if err != nil {
		return VariantSwitch{}, err
	}

	next, dropped := permit.SwitchVariant(doc, targetType, s.now())

	var existing permit.Document
	found, err := fieldstore.Load(ctx, s.fields, docKey(targetType), &existing)
	if err != nil {
		return VariantSwitch{}, fmt.Errorf("load document %s: %w", targetType, err)
	}
	if found {
		next = existing
	} else if err := s.saveDocument(ctx, next); err != nil {
		return VariantSwitch{}, err
	}

	s.mu.Lock()
	s.wizards[targetType] = wizard.New()
	s.mu.Unlock()

	return VariantSwitch{Document: next, DroppedFields: dropped}, nil
}

// printInput assembles the document, header and every comment bundle
// for the print projection.
func (s *Service) printInput(ctx context.Context, docType permit.DocType) (printview.Input, error) {
	doc, err := s.loadDocument(ctx, docType)
	if err != nil {
		return printview.Input{}, err
	}
	header, err := s.Header(ctx)
	if err != nil {
		return printview.Input{}, err
	}

	comments := make(map[string]permit.CommentBundle, len(permit.CommentEdges))
	for _, edge := range permit.CommentEdges {
		bundle, err := permit.LoadIncoming(ctx, s.fields, edge.Key)
		if err != nil {
			return printview.Input{}, err
		}
		comments[edge.Key] = bundle
	}
	return printview.Input{Doc: doc, Header: header, Comments: comments}, nil
}

// PrintPreview renders the variant-specific print form as HTML.
func (s *Service) PrintPreview(ctx context.Context, docType string) (*printview.Printable, error) {
	dt, err := parseDocType(docType)
	if err != nil {
		return nil, err
	}
	in, err := s.printInput(ctx, dt)
	if err != nil {
		return nil, err
	}
	return printview.Render(in)
}

// ExportPDF renders the print form and converts it to PDF through
// headless Chromium.
func (s *Service) ExportPDF(ctx context.Context, docType string) (*printview.Result, error) {
	printable, err := s.PrintPreview(ctx, docType)
	if err != nil {
		return nil, err
	}
	result, err := printview.ExportPDF(printable)
	if err != nil {
		if errors.Is(err, printview.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF export requires a Chromium installation", nil)
		}
		return nil, err
	}
	return result, nil
}

// SearchPermits queries the permit index.
func (s *Service) SearchPermits(ctx context.Context, q search.Query) search.Response {
	return s.search.Search(ctx, q)
}

// Ping verifies registry connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.registry.Ping(ctx)
}
