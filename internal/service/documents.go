package service

import (
	"context"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/and161185/cadetcorps/internal/notify"
	"github.com/and161185/cadetcorps/internal/repository"
)

// driveHost must appear in every document link.
const driveHost = "drive.google.com"

// DocumentService runs the cadet paperwork approval workflow.
type DocumentService interface {
	// Submit files a new pending document. Cadets can only submit for themselves.
	Submit(ctx context.Context, caller model.Caller, in model.DocumentInput) (*model.Document, error)
	// Resubmit replaces the link of an existing document and sends it back to review.
	Resubmit(ctx context.Context, caller model.Caller, id uuid.UUID, in model.DocumentInput) (*model.Document, error)
	// Review records an admin decision.
	Review(ctx context.Context, reviewer uuid.UUID, id uuid.UUID, status model.ReviewStatus, reason string) (*model.Document, error)
	// Delete tombstones a document. Cadets cannot delete approved or foreign documents.
	Delete(ctx context.Context, caller model.Caller, id uuid.UUID) error
	ListForCadet(ctx context.Context, caller model.Caller, cadetID uuid.UUID) ([]model.Document, error)
	ListAll(ctx context.Context, status model.ReviewStatus) ([]model.Document, error)
}

type DocumentServiceImpl struct {
	repo repository.DocumentRepository
	effects
}

// NewDocumentService constructs DocumentService.
func NewDocumentService(repo repository.DocumentRepository, opts ...Option) *DocumentServiceImpl {
	return &DocumentServiceImpl{repo: repo, effects: newEffects(opts)}
}

func (s *DocumentServiceImpl) clean(caller model.Caller, in model.DocumentInput) (model.DocumentInput, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	in.Type = strings.TrimSpace(in.Type)
	in.Link = normalizeLink(in.Link)
	if in.UserID == uuid.Nil {
		in.UserID = caller.ID
	}
	if err := s.val.Struct(in); err != nil {
		return in, err
	}
	if !strings.Contains(strings.ToLower(in.Link), driveHost) {
		return in, errs.InvalidFields(errs.FieldError{Field: "link", Error: "must be a Google Drive link"})
	}
	if !caller.IsAdmin() && in.UserID != caller.ID {
		return in, errs.ErrForbidden
	}
	return in, nil
}

// ensureUnique rejects a second approved document of the same type. "Other" is exempt.
func (s *DocumentServiceImpl) ensureUnique(ctx context.Context, userID uuid.UUID, docType string, except uuid.UUID) error {
	if strings.EqualFold(docType, model.DocTypeOther) {
		return nil
	}
	docs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return storeErr(err)
	}
	for _, d := range docs {
		if d.ID != except && d.Status == model.ReviewApproved && strings.EqualFold(d.Type, docType) {
			return errs.ErrDuplicateDocument
		}
	}
	return nil
}

func (s *DocumentServiceImpl) Submit(ctx context.Context, caller model.Caller, in model.DocumentInput) (*model.Document, error) {
	in, err := s.clean(caller, in)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in.UserID, in.Type, uuid.Nil); err != nil {
		return nil, err
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	d := &model.Document{
		ID:         id,
		UserID:     in.UserID,
		FileName:   in.FileName,
		Type:       in.Type,
		FileURL:    in.Link,
		Status:     model.ReviewPending,
		UploadedBy: caller.ID,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, storeErr(err)
	}
	s.changed(ctx, model.CollectionDocuments, model.OpCreated, d.ID)
	return d, nil
}

func (s *DocumentServiceImpl) Resubmit(ctx context.Context, caller model.Caller, id uuid.UUID, in model.DocumentInput) (*model.Document, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	in.UserID = d.UserID
	if in, err = s.clean(caller, in); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && d.Status == model.ReviewApproved {
		return nil, errs.ErrForbidden
	}
	if err := s.ensureUnique(ctx, d.UserID, in.Type, d.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Resubmit(ctx, id, in.FileName, in.Type, in.Link); err != nil {
		return nil, storeErr(err)
	}
	d.FileName, d.Type, d.FileURL = in.FileName, in.Type, in.Link
	d.Status, d.RejectionReason = model.ReviewPending, ""
	d.ReviewedBy, d.ReviewedAt = uuid.Nil, time.Time{}
	s.changed(ctx, model.CollectionDocuments, model.OpUpdated, d.ID)
	return d, nil
}

func (s *DocumentServiceImpl) Review(ctx context.Context, reviewer uuid.UUID, id uuid.UUID, status model.ReviewStatus, reason string) (*model.Document, error) {
	if status != model.ReviewApproved && status != model.ReviewRejected {
		return nil, errs.Invalidf("status must be approved or rejected")
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if status == model.ReviewApproved {
		if err := s.ensureUnique(ctx, d.UserID, d.Type, d.ID); err != nil {
			return nil, err
		}
		reason = ""
	}
	d.Status = status
	d.RejectionReason = strings.TrimSpace(reason)
	d.ReviewedBy = reviewer
	d.ReviewedAt = s.now()
	if err := s.repo.SetReview(ctx, d); err != nil {
		return nil, storeErr(err)
	}
	s.changed(ctx, model.CollectionDocuments, model.OpUpdated, d.ID)
	s.notify(ctx, notify.Event{
		Kind:       notify.DocumentReviewed,
		Subject:    d.ID,
		Recipients: []uuid.UUID{d.UserID},
		Title:      d.FileName + " was " + string(status),
		Body:       d.RejectionReason,
	})
	return d, nil
}

func (s *DocumentServiceImpl) Delete(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return storeErr(err)
	}
	if !caller.IsAdmin() && (d.UserID != caller.ID || d.Status == model.ReviewApproved) {
		return errs.ErrForbidden
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return storeErr(err)
	}
	s.changed(ctx, model.CollectionDocuments, model.OpDeleted, id)
	return nil
}

func (s *DocumentServiceImpl) ListForCadet(ctx context.Context, caller model.Caller, cadetID uuid.UUID) ([]model.Document, error) {
	if !caller.IsAdmin() && cadetID != caller.ID {
		return nil, errs.ErrForbidden
	}
	out, err := s.repo.ListByUser(ctx, cadetID)
	return out, storeErr(err)
}

func (s *DocumentServiceImpl) ListAll(ctx context.Context, status model.ReviewStatus) ([]model.Document, error) {
	out, err := s.repo.List(ctx, status)
	return out, storeErr(err)
}
