package grpcserver

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/cadetcorps/internal/api"
	"github.com/and161185/cadetcorps/internal/convert"
	"github.com/and161185/cadetcorps/internal/model"
)

// --- Announcements ---

func (s *Server) PostAnnouncement(ctx context.Context, req *api.PostAnnouncementRequest) (*api.Announcement, error) {
	c, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.svc.Announcements.Post(ctx, c.ID, model.NewAnnouncement{
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
	})
	if err != nil {
		return nil, s.fail("post announcement", err)
	}
	out := convert.ToAnnouncement(*a)
	return &out, nil
}

func (s *Server) ListAnnouncements(ctx context.Context, _ *api.Empty) (*api.ListAnnouncementsResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	out, err := s.svc.Announcements.List(ctx)
	if err != nil {
		return nil, s.fail("list announcements", err)
	}
	return &api.ListAnnouncementsResponse{Announcements: convert.ToAnnouncements(out)}, nil
}

func (s *Server) DeleteAnnouncement(ctx context.Context, req *api.IDRequest) (*api.Empty, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	id, err := convert.ParseID("id", req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.svc.Announcements.Delete(ctx, id); err != nil {
		return nil, s.fail("delete announcement", err)
	}
	return &api.Empty{}, nil
}

// --- Documents ---

// SubmitDocument stores a new document, or resubmits the one named by req.ID.
func (s *Server) SubmitDocument(ctx context.Context, req *api.SubmitDocumentRequest) (*api.Document, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, in, err := convert.FromSubmitDocument(req)
	if err != nil {
		return nil, toStatus(err)
	}
	var d *model.Document
	if id == uuid.Nil {
		d, err = s.svc.Documents.Submit(ctx, c, in)
	} else {
		d, err = s.svc.Documents.Resubmit(ctx, c, id, in)
	}
	if err != nil {
		return nil, s.fail("submit document", err)
	}
	out := convert.ToDocument(*d)
	return &out, nil
}

func (s *Server) ReviewDocument(ctx context.Context, req *api.ReviewRequest) (*api.Document, error) {
	c, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ParseID("id", req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	d, err := s.svc.Documents.Review(ctx, c.ID, id, model.ReviewStatus(req.Status), req.Reason)
	if err != nil {
		return nil, s.fail("review document", err)
	}
	out := convert.ToDocument(*d)
	return &out, nil
}

func (s *Server) DeleteDocument(ctx context.Context, req *api.IDRequest) (*api.Empty, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ParseID("id", req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.svc.Documents.Delete(ctx, c, id); err != nil {
		return nil, s.fail("delete document", err)
	}
	return &api.Empty{}, nil
}

// ListDocuments lists one cadet's documents, or every document by status for admins without a user filter.
func (s *Server) ListDocuments(ctx context.Context, req *api.ListDocumentsRequest) (*api.ListDocumentsResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	uid, err := convert.ParseOptionalID("user_id", req.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	var out []model.Document
	switch {
	case uid == uuid.Nil && c.IsAdmin():
		out, err = s.svc.Documents.ListAll(ctx, model.ReviewStatus(req.Status))
	case uid == uuid.Nil:
		out, err = s.svc.Documents.ListForCadet(ctx, c, c.ID)
	default:
		out, err = s.svc.Documents.ListForCadet(ctx, c, uid)
	}
	if err != nil {
		return nil, s.fail("list documents", err)
	}
	return &api.ListDocumentsResponse{Documents: convert.ToDocuments(out)}, nil
}

// --- Materials ---

func (s *Server) AddMaterial(ctx context.Context, req *api.AddMaterialRequest) (*api.Material, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.svc.Materials.Add(ctx, c, model.MaterialInput{Title: req.Title, Type: req.Type, Link: req.Link})
	if err != nil {
		return nil, s.fail("add material", err)
	}
	out := convert.ToMaterial(*m)
	return &out, nil
}

func (s *Server) ReviewMaterial(ctx context.Context, req *api.ReviewRequest) (*api.Empty, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	id, err := convert.ParseID("id", req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.svc.Materials.Review(ctx, id, model.ReviewStatus(req.Status), req.Reason); err != nil {
		return nil, s.fail("review material", err)
	}
	return &api.Empty{}, nil
}

func (s *Server) DeleteMaterial(ctx context.Context, req *api.IDRequest) (*api.Empty, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ParseID("id", req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.svc.Materials.Delete(ctx, c, id); err != nil {
		return nil, s.fail("delete material", err)
	}
	return &api.Empty{}, nil
}

// ListMaterials lists study material. Cadets see approved items plus their own submissions.
func (s *Server) ListMaterials(ctx context.Context, req *api.ListMaterialsRequest) (*api.ListMaterialsResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.svc.Materials.List(ctx, model.ReviewStatus(req.Status))
	if err != nil {
		return nil, s.fail("list materials", err)
	}
	if c.IsAdmin() {
		return &api.ListMaterialsResponse{Materials: convert.ToMaterials(all)}, nil
	}
	visible := make([]model.Material, 0, len(all))
	for _, m := range all {
		if m.Status == model.ReviewApproved || m.CreatedBy == c.ID {
			visible = append(visible, m)
		}
	}
	return &api.ListMaterialsResponse{Materials: convert.ToMaterials(visible)}, nil
}
