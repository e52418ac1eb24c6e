package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-service/internal/auth"
	"github.com/spec-kit/civic-service/internal/config"
	"github.com/spec-kit/civic-service/internal/domain"
	"github.com/spec-kit/civic-service/internal/repository"
	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

// AuthService handles citizen and staff authentication. The rules engine
// itself never sees credentials; it receives an already-resolved Actor.
type AuthService struct {
	citizens repository.CitizenRepository
	staff    repository.StaffRepository
	tokens   *auth.TokenManager
	cfg      config.AuthConfig
}

// AuthDependencies bundles repositories for the auth service.
type AuthDependencies struct {
	CitizenRepo repository.CitizenRepository
	StaffRepo   repository.StaffRepository
}

// RegisterCitizenInput describes registration payload.
type RegisterCitizenInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Ward     string
}

// LoginResult bundles the signed token with its expiry.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		citizens: deps.CitizenRepo,
		staff:    deps.StaffRepo,
		tokens:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		cfg:      cfg.Auth,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// RegisterCitizen creates a citizen account.
func (s *AuthService) RegisterCitizen(ctx context.Context, input RegisterCitizenInput) (*domain.Citizen, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	if _, err := s.citizens.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	citizen := &domain.Citizen{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Ward:         strings.TrimSpace(input.Ward),
		Status:       domain.CitizenStatusActive,
	}
	if err := s.citizens.Create(ctx, citizen); err != nil {
		return nil, apperrors.MapError(err)
	}
	return citizen, nil
}

// LoginCitizen authenticates a citizen and issues a token.
func (s *AuthService) LoginCitizen(ctx context.Context, email, password string) (*LoginResult, *domain.Citizen, error) {
	citizen, err := s.citizens.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if citizen.Status != domain.CitizenStatusActive {
		return nil, nil, apperrors.NewForbidden("account suspended")
	}
	if err := auth.ComparePassword(citizen.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(citizen.ID, domain.SubjectTypeCitizen, domain.RoleCitizen)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt}, citizen, nil
}

// LoginStaff authenticates a staff member and issues a token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*LoginResult, *domain.StaffMember, error) {
	staff, err := s.staff.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !staff.Active {
		return nil, nil, apperrors.NewForbidden("account deactivated")
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(staff.ID, domain.SubjectTypeStaff, staff.Role)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt}, staff, nil
}
