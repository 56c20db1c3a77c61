package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/carelog/carelog/internal/platform/apperr"
	"github.com/carelog/carelog/internal/platform/auth"
	"github.com/carelog/carelog/internal/platform/authz"
)

const minPasswordLength = 8

type Service struct {
	repo   Repository
	issuer *auth.TokenIssuer
}

func NewService(repo Repository, issuer *auth.TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// Register creates a new account. Admin accounts are provisioned out of
// band, not through the public endpoint.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if errs := validateRegister(in); len(errs) > 0 {
		return nil, apperr.Validation("invalid registration data", errs...)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	u := &User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         authz.Role(in.Role),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Internal("create user", err)
	}
	return u, nil
}

// Login verifies credentials and issues a token carrying the user's
// role and linked profile ids.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		// Same message for unknown email and wrong password.
		return nil, apperr.Denied("invalid credentials")
	}
	if !u.Active {
		return nil, apperr.Denied("account is deactivated")
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return nil, apperr.Denied("invalid credentials")
	}

	ids, err := s.repo.ProfileIDs(ctx, u.ID)
	if err != nil {
		return nil, apperr.Internal("resolve profiles", err)
	}

	token, err := s.issuer.Issue(u.ID, string(u.Role), ids.PatientID, ids.DoctorID)
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	return &LoginResult{Token: token, User: u}, nil
}

// ChangePassword verifies the current password before setting the new one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, in ChangePasswordInput) error {
	if len(in.NewPassword) < minPasswordLength {
		return apperr.Validation("password must be at least 8 characters",
			apperr.FieldError{Field: "new_password", Message: "too short"})
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, in.CurrentPassword) {
		return apperr.Denied("current password is incorrect")
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	return s.repo.UpdatePassword(ctx, userID, hash)
}

// Get returns a single user, policy-gated on own-account access.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*User, error) {
	d := authz.CanAccess(actor, authz.ActionRead, authz.ResourceUser, authz.OwnerRefs{UserID: &id})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies partial updates to the caller's own account.
func (s *Service) UpdateProfile(ctx context.Context, actor authz.Actor, id uuid.UUID, in UpdateProfileInput) (*User, error) {
	d := authz.CanAccess(actor, authz.ActionUpdate, authz.ResourceUser, authz.OwnerRefs{UserID: &id})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// List is admin-only.
func (s *Service) List(ctx context.Context, actor authz.Actor, limit, offset int) ([]*User, int, error) {
	if actor.Role != authz.RoleAdmin {
		return nil, 0, apperr.Denied("admin role required")
	}
	return s.repo.List(ctx, limit, offset)
}

func validateRegister(in RegisterInput) []apperr.FieldError {
	var errs []apperr.FieldError
	if !strings.Contains(in.Email, "@") {
		errs = append(errs, apperr.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(in.Password) < minPasswordLength {
		errs = append(errs, apperr.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	switch authz.Role(in.Role) {
	case authz.RolePatient, authz.RoleDoctor:
	case authz.RoleAdmin:
		errs = append(errs, apperr.FieldError{Field: "role", Message: "admin accounts cannot self-register"})
	default:
		errs = append(errs, apperr.FieldError{Field: "role", Message: "must be patient or doctor"})
	}
	if strings.TrimSpace(in.FirstName) == "" {
		errs = append(errs, apperr.FieldError{Field: "first_name", Message: "is required"})
	}
	if strings.TrimSpace(in.LastName) == "" {
		errs = append(errs, apperr.FieldError{Field: "last_name", Message: "is required"})
	}
	return errs
}
