package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"buildmarket/internal/auth/domain/model"
	"buildmarket/internal/auth/domain/repository"
	gatewaymodel "buildmarket/internal/gateway/domain/model"
	apperrors "buildmarket/internal/shared/errors"
	"buildmarket/internal/shared/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthUsecaseInterface defines the contract for identity lifecycle operations.
type AuthUsecaseInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*model.Account, string, error)
	Login(ctx context.Context, req LoginRequest) (*model.Account, string, error)
	Logout(ctx context.Context, tokenString string) error
	ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error)
	UpdatePassword(ctx context.Context, newPassword string) error
}

// RegisterRequest represents the registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUsecase implements the identity lifecycle.
type AuthUsecase struct {
	repo     repository.IdentityRepository
	profiles repository.ProfileStore
	tokenSvc repository.TokenService
	denylist repository.TokenDenylist
	log      logger.Logger
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	repo repository.IdentityRepository,
	profiles repository.ProfileStore,
	tokenSvc repository.TokenService,
	denylist repository.TokenDenylist,
	log logger.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		repo:     repo,
		profiles: profiles,
		tokenSvc: tokenSvc,
		denylist: denylist,
		log:      log.WithComponent("auth"),
	}
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required: %w", apperrors.ErrInvalidInput)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %w", apperrors.ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, apperrors.ErrInvalidInput)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters: %w", maxPasswordLength, apperrors.ErrInvalidInput)
	}
	return nil
}

// Register creates a provider identity and then the uid-keyed profile
// document. The two creations are not atomic: a failure after the first
// leaves an authenticatable identity without a profile document, which
// session resolution tolerates by synthesizing a default session.
func (uc *AuthUsecase) Register(ctx context.Context, req RegisterRequest) (*model.Account, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, "", err
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName = gatewaymodel.DisplayNameFromEmail(email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		UID:          uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		DisplayName:  fullName,
	}

	if err := uc.repo.CreateAccount(ctx, account); err != nil {
		return nil, "", err
	}

	now := gatewaymodel.FormatTimestamp(time.Now())
	profile := map[string]interface{}{
		"uid":          account.UID,
		"email":        account.Email,
		"full_name":    fullName,
		"role":         gatewaymodel.RoleUser,
		"created_at":   now,
		"created_date": now,
	}
	if err := uc.profiles.CreateProfile(ctx, account.UID, profile); err != nil {
		// The identity already exists; the profile is lazily repaired on the
		// first profile update, so this is logged rather than surfaced.
		uc.log.Warnf("Failed to create profile document for %s: %v", account.UID, err)
	}

	token, err := uc.tokenSvc.GenerateToken(ctx, account)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	account.PasswordHash = ""
	return account, token, nil
}

// Login authenticates against the stored identity.
func (uc *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*model.Account, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}

	account, err := uc.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := uc.tokenSvc.GenerateToken(ctx, account)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	account.PasswordHash = ""
	return account, token, nil
}

// Logout revokes the token for the remainder of its lifetime.
func (uc *AuthUsecase) Logout(ctx context.Context, tokenString string) error {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return apperrors.ErrTokenInvalid
	}

	ttl := time.Duration(0)
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := uc.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ValidateToken verifies a token string and rejects revoked tokens.
func (uc *AuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, apperrors.ErrTokenInvalid
	}

	revoked, err := uc.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}

// UpdatePassword replaces the current identity's password. Fails with
// not-authenticated when the request carries no session.
func (uc *AuthUsecase) UpdatePassword(ctx context.Context, newPassword string) error {
	claims := repository.ClaimsFromContext(ctx)
	if claims == nil {
		return apperrors.ErrNotAuthenticated
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return uc.repo.UpdatePasswordHash(ctx, claims.UserID, string(hashedPassword))
}

// Ensure AuthUsecase implements AuthUsecaseInterface.
var _ AuthUsecaseInterface = (*AuthUsecase)(nil)
