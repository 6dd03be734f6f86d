package service

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/and161185/cadetcorps/internal/notify"
	"github.com/and161185/cadetcorps/internal/repository"
)

// normalizeLink trims the link and upgrades it to https. Empty stays empty.
func normalizeLink(link string) string {
	link = strings.TrimSpace(link)
	switch {
	case link == "":
		return ""
	case strings.HasPrefix(strings.ToLower(link), "https://"):
		return link
	case strings.HasPrefix(strings.ToLower(link), "http://"):
		return "https://" + link[len("http://"):]
	default:
		return "https://" + link
	}
}

// AnnouncementService publishes unit-wide notices.
type AnnouncementService interface {
	Post(ctx context.Context, actor uuid.UUID, in model.NewAnnouncement) (*model.Announcement, error)
	List(ctx context.Context) ([]model.Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type AnnouncementServiceImpl struct {
	repo repository.AnnouncementRepository
	effects
}

// NewAnnouncementService constructs AnnouncementService.
func NewAnnouncementService(repo repository.AnnouncementRepository, opts ...Option) *AnnouncementServiceImpl {
	return &AnnouncementServiceImpl{repo: repo, effects: newEffects(opts)}
}

// Post stores an announcement and notifies everyone.
func (s *AnnouncementServiceImpl) Post(ctx context.Context, actor uuid.UUID, in model.NewAnnouncement) (*model.Announcement, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.val.Struct(in); err != nil {
		return nil, err
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	a := &model.Announcement{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Link:        normalizeLink(in.Link),
		CreatedBy:   actor,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, storeErr(err)
	}
	s.changed(ctx, model.CollectionAnnouncements, model.OpCreated, a.ID)
	s.notify(ctx, notify.Event{Kind: notify.AnnouncementPosted, Subject: a.ID, Title: a.Title, Body: a.Description})
	return a, nil
}

func (s *AnnouncementServiceImpl) List(ctx context.Context) ([]model.Announcement, error) {
	out, err := s.repo.List(ctx)
	return out, storeErr(err)
}

// Delete tombstones an announcement.
func (s *AnnouncementServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return storeErr(err)
	}
	s.changed(ctx, model.CollectionAnnouncements, model.OpDeleted, id)
	return nil
}

// MaterialService manages shared study material. Admin additions skip review.
type MaterialService interface {
	Add(ctx context.Context, caller model.Caller, in model.MaterialInput) (*model.Material, error)
	Review(ctx context.Context, id uuid.UUID, status model.ReviewStatus, reason string) error
	// List returns materials in the given status; empty means all.
	List(ctx context.Context, status model.ReviewStatus) ([]model.Material, error)
	// Delete removes a material. Cadets may only delete their own pending submissions.
	Delete(ctx context.Context, caller model.Caller, id uuid.UUID) error
}

type MaterialServiceImpl struct {
	repo repository.MaterialRepository
	effects
}

// NewMaterialService constructs MaterialService.
func NewMaterialService(repo repository.MaterialRepository, opts ...Option) *MaterialServiceImpl {
	return &MaterialServiceImpl{repo: repo, effects: newEffects(opts)}
}

func (s *MaterialServiceImpl) Add(ctx context.Context, caller model.Caller, in model.MaterialInput) (*model.Material, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Type = strings.TrimSpace(in.Type)
	in.Link = normalizeLink(in.Link)
	if err := s.val.Struct(in); err != nil {
		return nil, err
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	m := &model.Material{
		ID:        id,
		Title:     in.Title,
		Type:      in.Type,
		Link:      in.Link,
		Status:    model.ReviewPending,
		CreatedBy: caller.ID,
	}
	if caller.IsAdmin() {
		m.Status = model.ReviewApproved
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, storeErr(err)
	}
	s.changed(ctx, model.CollectionMaterials, model.OpCreated, m.ID)
	return m, nil
}

func (s *MaterialServiceImpl) Review(ctx context.Context, id uuid.UUID, status model.ReviewStatus, reason string) error {
	if status != model.ReviewApproved && status != model.ReviewRejected {
		return errs.Invalidf("status must be approved or rejected")
	}
	if status == model.ReviewApproved {
		reason = ""
	}
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return storeErr(err)
	}
	if err := s.repo.SetReview(ctx, id, status, strings.TrimSpace(reason)); err != nil {
		return storeErr(err)
	}
	s.changed(ctx, model.CollectionMaterials, model.OpUpdated, id)
	s.notify(ctx, notify.Event{
		Kind:       notify.MaterialReviewed,
		Subject:    id,
		Recipients: []uuid.UUID{m.CreatedBy},
		Title:      m.Title + " was " + string(status),
		Body:       reason,
	})
	return nil
}

func (s *MaterialServiceImpl) List(ctx context.Context, status model.ReviewStatus) ([]model.Material, error) {
	out, err := s.repo.List(ctx, status)
	return out, storeErr(err)
}

func (s *MaterialServiceImpl) Delete(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	if !caller.IsAdmin() {
		m, err := s.repo.Get(ctx, id)
		if err != nil {
			return storeErr(err)
		}
		if m.CreatedBy != caller.ID || m.Status == model.ReviewApproved {
			return errs.ErrForbidden
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr(err)
	}
	s.log.Info("material deleted", zap.String("material_id", id.String()))
	s.changed(ctx, model.CollectionMaterials, model.OpDeleted, id)
	return nil
}
