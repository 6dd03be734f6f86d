package service

import (
	"context"
	"sort"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/and161185/cadetcorps/internal/repository"
)

// rankOrder lists ranks from most to least senior. Unknown ranks sort last.
var rankOrder = []string{
	"Senior Under Officer",
	"Under Officer",
	"Company Quartermaster Sergeant",
	"Sergeant",
	"Corporal",
	"Lance Corporal",
	"Cadet",
}

func rankPriority(rank string) int {
	for i, r := range rankOrder {
		if strings.EqualFold(r, strings.TrimSpace(rank)) {
			return i
		}
	}
	return len(rankOrder)
}

// MemberService manages member profiles and standing. It never changes point totals.
type MemberService interface {
	Get(ctx context.Context, uid uuid.UUID) (*model.User, error)
	List(ctx context.Context, role model.Role, status model.Status) ([]model.User, error)
	UpdateProfile(ctx context.Context, uid uuid.UUID, p model.ProfileUpdate) error
	SetStatus(ctx context.Context, uid uuid.UUID, status model.Status) error
	ActiveCadetCount(ctx context.Context) (int, error)
	// Leaderboard returns active cadets by rank seniority, then points descending.
	Leaderboard(ctx context.Context) ([]model.User, error)
}

type MemberServiceImpl struct {
	users repository.UserRepository
	effects
}

// NewMemberService constructs MemberService.
func NewMemberService(users repository.UserRepository, opts ...Option) *MemberServiceImpl {
	return &MemberServiceImpl{users: users, effects: newEffects(opts)}
}

func (s *MemberServiceImpl) Get(ctx context.Context, uid uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, uid)
	return u, storeErr(err)
}

func (s *MemberServiceImpl) List(ctx context.Context, role model.Role, status model.Status) ([]model.User, error) {
	out, err := s.users.List(ctx, role, status)
	return out, storeErr(err)
}

// UpdateProfile trims fields and upper-cases the register number.
func (s *MemberServiceImpl) UpdateProfile(ctx context.Context, uid uuid.UUID, p model.ProfileUpdate) error {
	p.FullName = strings.TrimSpace(p.FullName)
	p.RegisterNumber = strings.ToUpper(strings.TrimSpace(p.RegisterNumber))
	p.Rank = strings.TrimSpace(p.Rank)
	if err := s.val.Struct(p); err != nil {
		return err
	}
	if err := s.users.UpdateProfile(ctx, uid, p); err != nil {
		return storeErr(err)
	}
	s.changed(ctx, model.CollectionUsers, model.OpUpdated, uid)
	return nil
}

func (s *MemberServiceImpl) SetStatus(ctx context.Context, uid uuid.UUID, status model.Status) error {
	if status != model.StatusActive && status != model.StatusAlumni {
		return errs.Invalidf("status must be active or alumni")
	}
	if err := s.users.SetStatus(ctx, uid, status); err != nil {
		return storeErr(err)
	}
	s.changed(ctx, model.CollectionUsers, model.OpUpdated, uid)
	return nil
}

func (s *MemberServiceImpl) ActiveCadetCount(ctx context.Context) (int, error) {
	n, err := s.users.CountActiveCadets(ctx)
	return n, storeErr(err)
}

func (s *MemberServiceImpl) Leaderboard(ctx context.Context) ([]model.User, error) {
	out, err := s.users.List(ctx, model.RoleCadet, model.StatusActive)
	if err != nil {
		return nil, storeErr(err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := rankPriority(out[i].Rank), rankPriority(out[j].Rank)
		if pi != pj {
			return pi < pj
		}
		return out[i].TotalPoints > out[j].TotalPoints
	})
	return out, nil
}
