package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const downloadURLTTL = 15 * time.Minute

const (
	outcomeExtracted = "extracted"
	outcomeEmpty     = "empty"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

// DocumentService stores customer documents and applies OCR results to the
// customer record.
type DocumentService struct {
	repo       customer.CustomerRepository
	logs       activity.LogRepository
	eventBus   shared.EventPublisher
	storage    ObjectStorage
	normalizer ImageNormalizer
	extractor  Extractor
	metrics    *telemetry.BusinessMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewDocumentService creates a new DocumentService. extractor and metrics may be nil.
func NewDocumentService(
	repo customer.CustomerRepository,
	logs activity.LogRepository,
	eventBus shared.EventPublisher,
	storage ObjectStorage,
	normalizer ImageNormalizer,
	extractor Extractor,
	metrics *telemetry.BusinessMetrics,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		repo:       repo,
		logs:       logs,
		eventBus:   eventBus,
		storage:    storage,
		normalizer: normalizer,
		extractor:  extractor,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Upload stores each file and appends its reference to the customer. Files
// are processed one at a time with one record write each, so a failure part
// way through keeps the documents attached before it.
func (s *DocumentService) Upload(ctx context.Context, customerID uuid.UUID, input UploadInput, actor activity.Actor) ([]DocumentDTO, error) {
	kind := customer.DocumentKind(input.Kind)
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_KIND", "Unknown document kind: "+input.Kind)
	}
	if len(input.Files) == 0 {
		return nil, shared.NewDomainError("NO_FILES", "At least one file is required")
	}
	if _, err := s.load(ctx, customerID); err != nil {
		return nil, err
	}

	out := make([]DocumentDTO, 0, len(input.Files))
	for _, f := range input.Files {
		doc, err := s.uploadOne(ctx, customerID, kind, f, actor)
		if err != nil {
			return out, fmt.Errorf("upload %s: %w", f.FileName, err)
		}
		out = append(out, ToDocumentDTO(doc))
	}
	return out, nil
}

func (s *DocumentService) uploadOne(ctx context.Context, customerID uuid.UUID, kind customer.DocumentKind, f UploadFile, actor activity.Actor) (customer.Document, error) {
	data, contentType, err := s.normalizer.Normalize(f.Data, f.ContentType)
	if err != nil {
		return customer.Document{}, shared.NewDomainError("INVALID_FILE", "File could not be read: "+err.Error())
	}

	doc := customer.Document{
		ID:          uuid.New(),
		Kind:        kind,
		FileName:    f.FileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		UploadedAt:  s.now(),
		OCRStatus:   customer.OCRStatusPending,
	}
	if !kind.Extractable() {
		doc.OCRStatus = customer.OCRStatusSkipped
	}
	doc.ObjectKey = s.storage.ObjectKey(customerID, doc.ID, f.FileName)

	if err := s.storage.Upload(ctx, doc.ObjectKey, data, contentType); err != nil {
		return customer.Document{}, fmt.Errorf("store object: %w", err)
	}

	// reload per file so each write carries the latest version
	c, err := s.repo.FindByID(ctx, customerID)
	if err == nil {
		err = c.AttachDocument(doc)
	}
	if err == nil {
		err = s.repo.SaveWithLock(ctx, c)
	}
	if err != nil {
		if derr := s.storage.DeleteObject(ctx, doc.ObjectKey); derr != nil {
			s.logger.Warn("Failed to remove orphaned object", zap.String("key", doc.ObjectKey), zap.Error(derr))
		}
		return customer.Document{}, err
	}

	s.appendHistory(ctx, activity.NewHistoryLog(customerID, activity.ActionDocumentAdded, "documents", "", f.FileName, actor))
	s.publish(ctx, c)
	s.logger.Info("Document uploaded",
		zap.String("customer_id", customerID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.String("kind", string(kind)),
		zap.Int64("size", doc.Size))
	return doc, nil
}

// Extract runs OCR on a stored document and applies the recognized fields
func (s *DocumentService) Extract(ctx context.Context, customerID, documentID uuid.UUID, actor activity.Actor) (*ExtractionResultDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "extract",
		telemetry.SpanAttrCustomerID, customerID.String(),
		telemetry.SpanAttrDocumentID, documentID.String())
	defer span.End()

	c, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	doc, err := c.FindDocument(documentID)
	if err != nil {
		return nil, err
	}
	if !doc.Kind.Extractable() {
		return nil, shared.NewDomainError("NOT_EXTRACTABLE", "Documents of this kind are not read by OCR")
	}
	if s.extractor == nil {
		return nil, shared.NewDomainError("OCR_DISABLED", "OCR extraction is not configured")
	}
	kind := doc.Kind

	if !Readable(doc.ContentType) {
		s.metrics.RecordOCRExtraction(ctx, string(kind), outcomeSkipped)
		return s.finish(ctx, c, documentID, customer.OCRStatusSkipped, nil, actor,
			"Only images and PDF documents can be read")
	}

	data, err := s.storage.Download(ctx, doc.ObjectKey)
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, ErrObjectNotFound) {
			return nil, customer.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("download document: %w", err)
	}

	extraction, err := s.extractor.Extract(ctx, kind, data, doc.ContentType)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordOCRExtraction(ctx, string(kind), outcomeFailed)
		s.logger.Warn("OCR extraction failed",
			zap.String("customer_id", customerID.String()),
			zap.String("document_id", documentID.String()),
			zap.Error(err))
		if _, ferr := s.finish(ctx, c, documentID, customer.OCRStatusFailed, nil, actor); ferr != nil {
			s.logger.Warn("Failed to record OCR failure", zap.Error(ferr))
		}
		if errors.Is(err, ErrUnsupportedContent) {
			return nil, shared.NewDomainError("UNSUPPORTED_CONTENT", err.Error())
		}
		return nil, shared.ErrExternalService.WithDetails(map[string]any{"provider": "ocr", "reason": err.Error()})
	}
	if extraction.IsEmpty() {
		s.metrics.RecordOCRExtraction(ctx, string(kind), outcomeEmpty)
		return s.finish(ctx, c, documentID, customer.OCRStatusFailed, nil, actor, "No fields could be read from the document")
	}

	changes, warnings, err := s.apply(ctx, c, extraction)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordOCRExtraction(ctx, string(kind), outcomeExtracted)
	return s.finish(ctx, c, documentID, customer.OCRStatusExtracted, changes, actor, warnings...)
}

// apply copies the extraction into the customer and returns the changed fields
func (s *DocumentService) apply(ctx context.Context, c *customer.Customer, e *Extraction) ([]customer.FieldChange, []string, error) {
	var changes []customer.FieldChange
	var warnings []string

	if reg := e.Registration; reg != nil {
		fields := []struct{ name, value string }{
			{"company_name", reg.CompanyName},
			{"registration_number", reg.RegistrationNumber},
			{"corporate_number", reg.CorporateNumber},
			{"representative", reg.Representative},
			{"address", reg.Address},
			{"industry", reg.Industry},
		}
		for _, f := range fields {
			if strings.TrimSpace(f.value) == "" {
				continue
			}
			if f.name == "registration_number" {
				normalized := customer.NormalizeRegistrationNumber(f.value)
				exists, err := s.repo.ExistsByRegistrationNumber(ctx, normalized, c.ID)
				if err != nil {
					return nil, nil, err
				}
				if exists {
					warnings = append(warnings, "registration number "+normalized+" belongs to another customer")
					continue
				}
			}
			ch, err := c.SetTextField(f.name, f.value)
			if err != nil {
				warnings = append(warnings, f.name+": "+err.Error())
				continue
			}
			if ch.OldValue != ch.NewValue {
				changes = append(changes, ch)
			}
		}
		if reg.FoundingDate != nil {
			old := formatDate(c.FoundingDate)
			c.SetFoundingDate(reg.FoundingDate, s.now())
			if nv := formatDate(c.FoundingDate); nv != old {
				changes = append(changes, customer.FieldChange{Field: "founding_date", OldValue: old, NewValue: nv})
			}
		}
	}

	if len(e.Sales) > 0 {
		merged := mergeSales(c.YearlySales, e.Sales)
		if err := c.SetYearlySales(merged); err != nil {
			warnings = append(warnings, "yearly_sales: "+err.Error())
		} else {
			changes = append(changes, customer.FieldChange{Field: "yearly_sales", NewValue: fmt.Sprintf("%d years", len(merged))})
		}
	}

	if len(e.Obligations) > 0 {
		old := c.TotalObligationBalance().String()
		if err := c.ReplaceObligations(e.Obligations); err != nil {
			warnings = append(warnings, "financial_obligations: "+err.Error())
		} else {
			changes = append(changes, customer.FieldChange{Field: "financial_obligations", OldValue: old, NewValue: c.TotalObligationBalance().String()})
		}
	}
	return changes, warnings, nil
}

// finish records the OCR status, persists the customer and logs the changes
func (s *DocumentService) finish(ctx context.Context, c *customer.Customer, documentID uuid.UUID, status customer.OCRStatus, changes []customer.FieldChange, actor activity.Actor, warnings ...string) (*ExtractionResultDTO, error) {
	if err := c.MarkDocumentExtracted(documentID, status); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		entries := make([]*activity.HistoryLog, 0, len(changes))
		fields := make([]string, 0, len(changes))
		for _, ch := range changes {
			entries = append(entries, activity.NewHistoryLog(c.ID, activity.ActionOCRApplied, ch.Field, ch.OldValue, ch.NewValue, actor))
			fields = append(fields, ch.Field)
		}
		s.appendHistory(ctx, entries...)
		c.AddDomainEvent(customer.NewCustomerUpdatedEvent(c, actor.ID, fields))
		s.publish(ctx, c)
	}

	doc, _ := c.FindDocument(documentID)
	result := &ExtractionResultDTO{
		Document: ToDocumentDTO(*doc),
		Status:   string(status),
		Changes:  make([]FieldChangeDTO, len(changes)),
		Warnings: warnings,
	}
	for i, ch := range changes {
		result.Changes[i] = FieldChangeDTO{Field: ch.Field, OldValue: ch.OldValue, NewValue: ch.NewValue}
	}
	return result, nil
}

// DownloadURL returns a presigned link to the stored file
func (s *DocumentService) DownloadURL(ctx context.Context, customerID, documentID uuid.UUID) (*DownloadURLDTO, error) {
	c, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	doc, err := c.FindDocument(documentID)
	if err != nil {
		return nil, err
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, doc.ObjectKey, downloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}
	return &DownloadURLDTO{URL: url, ExpiresAt: expiresAt}, nil
}

// Delete detaches the document and removes the stored object
func (s *DocumentService) Delete(ctx context.Context, customerID, documentID uuid.UUID, actor activity.Actor) error {
	c, err := s.load(ctx, customerID)
	if err != nil {
		return err
	}
	doc, err := c.DetachDocument(documentID)
	if err != nil {
		return err
	}
	if err := s.repo.SaveWithLock(ctx, c); err != nil {
		return err
	}
	if err := s.storage.DeleteObject(ctx, doc.ObjectKey); err != nil && !errors.Is(err, ErrObjectNotFound) {
		s.logger.Warn("Failed to delete document object",
			zap.String("customer_id", customerID.String()),
			zap.String("key", doc.ObjectKey),
			zap.Error(err))
	}
	s.appendHistory(ctx, activity.NewHistoryLog(customerID, activity.ActionDocumentRemove, "documents", doc.FileName, "", actor))
	c.AddDomainEvent(customer.NewCustomerUpdatedEvent(c, actor.ID, []string{"documents"}))
	s.publish(ctx, c)
	return nil
}

// List returns the customer's documents
func (s *DocumentService) List(ctx context.Context, customerID uuid.UUID) ([]DocumentDTO, error) {
	c, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentDTO, len(c.Documents))
	for i, d := range c.Documents {
		out[i] = ToDocumentDTO(d)
	}
	return out, nil
}

func (s *DocumentService) load(ctx context.Context, customerID uuid.UUID) (*customer.Customer, error) {
	scope, ok := identity.ScopeFromContext(ctx)
	if !ok {
		return nil, shared.ErrForbidden
	}
	c, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccess(c.ManagerID, c.TeamID) {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (s *DocumentService) appendHistory(ctx context.Context, entries ...*activity.HistoryLog) {
	if err := s.logs.AppendHistory(ctx, entries...); err != nil {
		s.logger.Error("Failed to append document history", zap.Error(err))
	}
}

func (s *DocumentService) publish(ctx context.Context, c *customer.Customer) {
	events := c.GetDomainEvents()
	c.ClearDomainEvents()
	if len(events) == 0 || s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish document events", zap.Error(err))
	}
}

// mergeSales overlays extracted years onto the stored ones
func mergeSales(current, extracted []customer.YearlySales) []customer.YearlySales {
	byYear := make(map[int]customer.YearlySales, len(current)+len(extracted))
	for _, s := range current {
		byYear[s.Year] = s
	}
	for _, s := range extracted {
		byYear[s.Year] = s
	}
	out := make([]customer.YearlySales, 0, len(byYear))
	for _, s := range byYear {
		out = append(out, s)
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
