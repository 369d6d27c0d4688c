package intake

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"lead-intake/internal/audit"
	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/hubspot"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/notify"
)

// noteBody is the fixed descriptive body of the photo-attachment note.
const noteBody = "Photos submitted with the discovery call request."

// CRMClient is the subset of the CRM API the intake flow uses. Satisfied by
// *hubspot.Client; faked in tests.
type CRMClient interface {
	CreateContact(ctx context.Context, props hubspot.ContactProperties) (string, error)
	UpdateContact(ctx context.Context, contactID string, props hubspot.ContactProperties) error
	UploadFile(ctx context.Context, filename string, data []byte) (string, error)
	CreateNote(ctx context.Context, contactID, noteBody string, attachmentIDs []string) (string, error)
}

// Deduper remembers recently resolved contact IDs per email.
type Deduper interface {
	Lookup(ctx context.Context, email string) (string, bool)
	Remember(ctx context.Context, email, contactID string)
}

// AuditRecorder persists one row per handled submission.
type AuditRecorder interface {
	Record(ctx context.Context, rec audit.Record) error
}

// LeadNotifier tells the sales team about a captured lead.
type LeadNotifier interface {
	LeadCaptured(ctx context.Context, lead notify.Lead)
}

type Service struct {
	config   *Config
	logger   logger.Logger
	crm      CRMClient
	deduper  Deduper
	audit    AuditRecorder
	notifier LeadNotifier
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:   config,
		logger:   deps.Logger,
		crm:      deps.CRM,
		deduper:  deps.Deduper,
		audit:    deps.Audit,
		notifier: deps.Notifier,
	}
}

// Execute runs the full intake flow for one submission: create-or-update the
// contact, then best-effort photo uploads and note creation. The contact
// write is the only step that can fail the request; everything after it
// degrades silently.
func (s *Service) Execute(ctx context.Context, sub *Submission) (*Result, error) {
	if s.crm == nil {
		return nil, errors.NewCRMNotConfiguredError("missing CRM access token")
	}

	props := buildContactProperties(sub)

	contactID, outcome, err := s.resolveContact(ctx, sub.Email, props)
	if err != nil {
		s.recordAudit(ctx, sub, "", "failed", 0, "")
		return nil, err
	}

	s.logger.Info("Contact resolved", map[string]interface{}{
		"contactId": contactID,
		"outcome":   outcome,
	})

	if s.config.DeferredUpdate {
		s.confirmCustomProperties(ctx, contactID, sub)
	}

	uploaded, noteID := s.attachPhotos(ctx, contactID, sub.Photos)

	if s.deduper != nil {
		s.deduper.Remember(ctx, sub.Email, contactID)
	}
	s.recordAudit(ctx, sub, contactID, outcome, uploaded, noteID)
	if s.notifier != nil {
		s.notifier.LeadCaptured(ctx, notify.Lead{
			Name:        sub.ContactName,
			Email:       sub.Email,
			ServiceType: sub.ServiceType,
			ContactID:   contactID,
			PhotoCount:  uploaded,
		})
	}

	return &Result{
		Success:   true,
		ContactID: contactID,
		Message:   "Lead captured successfully",
	}, nil
}

// resolveContact implements the create-or-update protocol: try a create; on
// a uniqueness conflict, parse the existing ID out of the vendor's message
// and update that record instead. One submission maps to exactly one
// contact, never a duplicate create.
func (s *Service) resolveContact(ctx context.Context, email string, props hubspot.ContactProperties) (string, string, error) {
	if s.deduper != nil {
		if contactID, ok := s.deduper.Lookup(ctx, email); ok {
			if err := s.updateContact(ctx, contactID, props); err != nil {
				return "", "", err
			}
			return contactID, "updated", nil
		}
	}

	contactID, err := s.crm.CreateContact(ctx, props)
	if err == nil {
		metrics.CRMRequestsTotal.WithLabelValues("contact_create", "success").Inc()
		return contactID, "created", nil
	}

	conflictErr, ok := err.(*hubspot.ConflictError)
	if !ok {
		metrics.CRMRequestsTotal.WithLabelValues("contact_create", "error").Inc()
		return "", "", errors.NewContactWriteFailedError(err)
	}
	metrics.CRMRequestsTotal.WithLabelValues("contact_create", "conflict").Inc()

	existingID, found := hubspot.ParseExistingID(conflictErr.Message)
	if !found {
		s.logger.Error("Uniqueness conflict without a parseable existing ID", map[string]interface{}{
			"message": conflictErr.Message,
		})
		return "", "", errors.NewConflictUnresolvedError(conflictErr.Message)
	}

	if err := s.updateContact(ctx, existingID, props); err != nil {
		return "", "", err
	}
	return existingID, "updated", nil
}

func (s *Service) updateContact(ctx context.Context, contactID string, props hubspot.ContactProperties) error {
	if err := s.crm.UpdateContact(ctx, contactID, props); err != nil {
		metrics.CRMRequestsTotal.WithLabelValues("contact_update", "error").Inc()
		return errors.NewContactWriteFailedError(err)
	}
	metrics.CRMRequestsTotal.WithLabelValues("contact_update", "success").Inc()
	return nil
}

// confirmCustomProperties re-applies the custom properties after a bounded
// delay. Workaround for CRMs whose custom-property indexing lags the initial
// write; a single capped wait and one PATCH, no spin loop. Failure is logged
// only, since the full property set already went out with the first write.
func (s *Service) confirmCustomProperties(ctx context.Context, contactID string, sub *Submission) {
	timer := time.NewTimer(s.config.DeferredDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		s.logger.Warn("Deferred property confirmation skipped", map[string]interface{}{
			"contactId": contactID,
			"error":     ctx.Err().Error(),
		})
		return
	case <-timer.C:
	}

	if err := s.crm.UpdateContact(ctx, contactID, customProperties(sub)); err != nil {
		metrics.CRMRequestsTotal.WithLabelValues("contact_update", "error").Inc()
		s.logger.Warn("Deferred property confirmation failed", map[string]interface{}{
			"contactId": contactID,
			"error":     err.Error(),
		})
		return
	}
	metrics.CRMRequestsTotal.WithLabelValues("contact_update", "success").Inc()
}

// attachPhotos uploads each photo sequentially and, when at least one upload
// succeeded, creates a single note linking the files to the contact. A
// failed upload is logged and skipped; it never aborts the loop or the
// request.
func (s *Service) attachPhotos(ctx context.Context, contactID string, photos []string) (int, string) {
	if len(photos) == 0 {
		return 0, ""
	}

	fileIDs := make([]string, 0, len(photos))
	for i, photo := range photos {
		data, err := decodePhoto(photo)
		if err != nil {
			metrics.PhotoUploadsTotal.WithLabelValues("failure").Inc()
			s.logger.Warn("Photo payload could not be decoded", map[string]interface{}{
				"contactId": contactID,
				"index":     i,
				"error":     err.Error(),
			})
			continue
		}

		filename := fmt.Sprintf("%s-%d-%d.jpg", s.config.FilenamePrefix, time.Now().UnixMilli(), i+1)
		fileID, err := s.crm.UploadFile(ctx, filename, data)
		if err != nil {
			metrics.CRMRequestsTotal.WithLabelValues("file_upload", "error").Inc()
			metrics.PhotoUploadsTotal.WithLabelValues("failure").Inc()
			s.logger.Warn("Photo upload failed, skipping", map[string]interface{}{
				"contactId": contactID,
				"filename":  filename,
				"error":     err.Error(),
			})
			continue
		}
		metrics.CRMRequestsTotal.WithLabelValues("file_upload", "success").Inc()
		metrics.PhotoUploadsTotal.WithLabelValues("success").Inc()
		fileIDs = append(fileIDs, fileID)
	}

	if len(fileIDs) == 0 {
		return 0, ""
	}

	noteID, err := s.crm.CreateNote(ctx, contactID, noteBody, fileIDs)
	if err != nil {
		metrics.CRMRequestsTotal.WithLabelValues("note_create", "error").Inc()
		s.logger.Error("Note creation failed", map[string]interface{}{
			"contactId":   contactID,
			"attachments": len(fileIDs),
			"error":       err.Error(),
		})
		return len(fileIDs), ""
	}
	metrics.CRMRequestsTotal.WithLabelValues("note_create", "success").Inc()
	metrics.NotesCreatedTotal.Inc()

	return len(fileIDs), noteID
}

func (s *Service) recordAudit(ctx context.Context, sub *Submission, contactID, outcome string, uploaded int, noteID string) {
	if s.audit == nil {
		return
	}
	// Record errors are already logged by the store.
	_ = s.audit.Record(ctx, audit.Record{
		Email:          sub.Email,
		ContactID:      contactID,
		Outcome:        outcome,
		PhotosReceived: len(sub.Photos),
		PhotosUploaded: uploaded,
		NoteID:         noteID,
	})
}

// buildContactProperties maps a submission to the full outbound property
// set. Every key is always present, empty string when the form omitted the
// field, so an update can clear a previously-set value.
func buildContactProperties(sub *Submission) hubspot.ContactProperties {
	first, last := splitContactName(sub.ContactName)

	return hubspot.ContactProperties{
		"firstname":         first,
		"lastname":          last,
		"email":             sub.Email,
		"phone":             sub.Phone,
		"company":           sub.ServiceName,
		"jobtitle":          sub.Position,
		"service_type":      sub.ServiceType,
		"student_count":     sub.StudentCount,
		"indicative_budget": sub.IndicativeBudget,
		"age_group":         sub.AgeGroup,
		"planning_phase":    strings.Join(sub.Phase, ";"),
		"additional_info":   sub.AdditionalInfo,
	}
}

// customProperties is the subset re-applied by the deferred confirmation.
func customProperties(sub *Submission) hubspot.ContactProperties {
	return hubspot.ContactProperties{
		"service_type":      sub.ServiceType,
		"student_count":     sub.StudentCount,
		"indicative_budget": sub.IndicativeBudget,
		"age_group":         sub.AgeGroup,
		"planning_phase":    strings.Join(sub.Phase, ";"),
		"additional_info":   sub.AdditionalInfo,
	}
}

// splitContactName splits a free-text name on the first whitespace: given
// name before it, family name after. No space means the whole string is the
// given name.
func splitContactName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

// decodePhoto strips the data-URL prefix up to the first comma and decodes
// the remaining base64 payload.
func decodePhoto(photo string) ([]byte, error) {
	if i := strings.IndexByte(photo, ','); i >= 0 {
		photo = photo[i+1:]
	}
	return base64.StdEncoding.DecodeString(photo)
}
