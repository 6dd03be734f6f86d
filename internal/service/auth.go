package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/cadetcorps/internal/crypto"
	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/and161185/cadetcorps/internal/repository"
)

// Password rules.
const (
	DefaultCadetPassword = "NCC@123"
	MinPasswordLen       = 6
)

// AuthService defines account provisioning and authentication.
type AuthService interface {
	// Provision creates an account. Cadets without a password get DefaultCadetPassword
	// and must change it on first login.
	Provision(ctx context.Context, in model.NewMember, password string) (*model.User, error)
	// Login authenticates by email and password and issues an access token.
	Login(ctx context.Context, email, password string) (model.Tokens, model.User, error)
	// ChangePassword verifies the old password and stores the new one.
	ChangePassword(ctx context.Context, uid uuid.UUID, oldPassword, newPassword string) error
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	effects
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, opts ...Option) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, effects: newEffects(opts)}
}

// Provision implements AuthService.
func (s *AuthServiceImpl) Provision(ctx context.Context, in model.NewMember, password string) (*model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.RegisterNumber = strings.ToUpper(strings.TrimSpace(in.RegisterNumber))
	if err := s.val.Struct(in); err != nil {
		return nil, err
	}

	u := &model.User{
		Email:          in.Email,
		Role:           in.Role,
		Status:         model.StatusActive,
		FullName:       in.FullName,
		RegisterNumber: in.RegisterNumber,
		Year:           in.Year,
		Department:     in.Department,
		Phone:          in.Phone,
		Wing:           in.Wing,
		Squad:          in.Squad,
	}
	switch in.Role {
	case model.RoleCadet:
		u.Rank = model.DefaultRank
		if password == "" {
			password = DefaultCadetPassword
			u.MustChangePassword = true
		}
	case model.RoleAdmin:
		if len(password) < MinPasswordLen {
			return nil, errs.InvalidFields(errs.FieldError{Field: "password", Error: fmt.Sprintf("must be at least %d characters", MinPasswordLen)})
		}
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	u.ID = id
	if u.PwdHash, u.SaltAuth, err = pkgcrypto.NewCredentials(password); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, storeErr(err)
	}
	s.log.Info("member provisioned", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))
	s.changed(ctx, model.CollectionUsers, model.OpCreated, u.ID)
	return u, nil
}

// Login implements AuthService. Unknown users and wrong passwords are indistinguishable.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (model.Tokens, model.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Tokens{}, model.User{}, errs.ErrUnauthorized
		}
		return model.Tokens{}, model.User{}, storeErr(err)
	}
	if !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	access, exp, err := IssueAccessToken(s.signKey, u.ID, u.Role, s.accessTTL, s.now())
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, *u, nil
}

// ChangePassword implements AuthService.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, uid uuid.UUID, oldPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLen {
		return errs.InvalidFields(errs.FieldError{Field: "new_password", Error: fmt.Sprintf("must be at least %d characters", MinPasswordLen)})
	}
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return storeErr(err)
	}
	if !pkgcrypto.VerifyPassword([]byte(oldPassword), u.SaltAuth, u.PwdHash) {
		return errs.ErrUnauthorized
	}
	hash, salt, err := pkgcrypto.NewCredentials(newPassword)
	if err != nil {
		return err
	}
	return storeErr(s.users.SetPassword(ctx, uid, hash, salt))
}

// EnsureAdmin provisions an admin account for email unless one already exists.
// It reports whether an account was created.
func (s *AuthServiceImpl) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, errs.ErrNotFound):
		return false, storeErr(err)
	}
	_, err = s.Provision(ctx, model.NewMember{
		Email:    email,
		Role:     model.RoleAdmin,
		FullName: "Administrator",
		Phone:    "-",
	}, password)
	if errors.Is(err, errs.ErrAlreadyExists) {
		return false, nil
	}
	return err == nil, err
}
