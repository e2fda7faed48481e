package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/district-helpdesk/internal/auth"
	"github.com/spec-kit/district-helpdesk/internal/config"
	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/mailrelay"
	"github.com/spec-kit/district-helpdesk/internal/repository"
	"github.com/spec-kit/district-helpdesk/pkg/util/errorutil"
)

// AuthService handles staff login and password lifecycle.
type AuthService struct {
	staff  repository.StaffRepository
	resets repository.PasswordResetRepository
	tokens *auth.TokenManager
	sender mailrelay.Sender
	cfg    config.AuthConfig
	logger *zap.Logger
}

// NewAuthService wires the auth use cases.
func NewAuthService(
	staff repository.StaffRepository,
	resets repository.PasswordResetRepository,
	tokens *auth.TokenManager,
	sender mailrelay.Sender,
	cfg config.AuthConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		staff:  staff,
		resets: resets,
		tokens: tokens,
		sender: sender,
		cfg:    cfg,
		logger: logger,
	}
}

// LoginResult carries the issued token and its holder.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Staff     *domain.Staff
}

// Login verifies credentials and issues an access token. Invalid email and
// invalid password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	member, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		return nil, errorutil.NewUnauthorized("invalid credentials")
	}
	if !member.Active {
		return nil, errorutil.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(member.PasswordHash, password); err != nil {
		return nil, errorutil.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(member.ID, member.Role, member.SuperAdmin)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	s.logger.Info("staff login", zap.String("staff_id", member.ID))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Staff: member}, nil
}

// ListStaff returns the staff directory for assignment pickers and
// admin views, filtered and paginated by the store.
func (s *AuthService) ListStaff(ctx context.Context, filter repository.StaffFilter) ([]domain.Staff, error) {
	members, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, errorutil.ToDomainError(err)
	}
	return members, nil
}

// RequestPasswordReset creates a reset token and mails it to the member.
// Unknown emails return success to avoid account enumeration.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	member, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}

	token, err := randomToken()
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	reset := &repository.PasswordResetToken{
		StaffID:   member.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.PasswordResetTTLMinutes) * time.Minute),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return errorutil.ToDomainError(err)
	}

	if s.sender != nil {
		body := "<p>Use this code to reset your helpdesk password: <b>" + token + "</b></p>"
		if err := s.sender.SendEmail(ctx, member.Email, "Password reset", body); err != nil {
			s.logger.Warn("reset mail failed", zap.String("staff_id", member.ID), zap.Error(err))
		}
	}
	return nil
}

// ConfirmPasswordReset consumes a valid token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return errorutil.NewValidationError("password must be at least 8 characters", nil)
	}

	reset, err := s.resets.GetByToken(ctx, token)
	if err != nil {
		return errorutil.NewValidationError("invalid or expired reset token", nil)
	}
	if reset.UsedAt != nil || time.Now().After(reset.ExpiresAt) {
		return errorutil.NewValidationError("invalid or expired reset token", nil)
	}

	member, err := s.staff.GetByID(ctx, reset.StaffID)
	if err != nil {
		return errorutil.ToDomainError(err)
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	member.PasswordHash = hash
	if err := s.staff.Update(ctx, member); err != nil {
		return errorutil.ToDomainError(err)
	}
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		return errorutil.ToDomainError(err)
	}

	s.logger.Info("password reset completed", zap.String("staff_id", member.ID))
	return nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *AuthService) ChangePassword(ctx context.Context, staffID, current, newPassword string) error {
	if len(newPassword) < 8 {
		return errorutil.NewValidationError("password must be at least 8 characters", nil)
	}

	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return errorutil.ToDomainError(err)
	}
	if err := auth.ComparePassword(member.PasswordHash, current); err != nil {
		return errorutil.NewUnauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	member.PasswordHash = hash
	if err := s.staff.Update(ctx, member); err != nil {
		return errorutil.ToDomainError(err)
	}
	return nil
}

func randomToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
