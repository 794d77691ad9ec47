// Package service holds the business rules between the HTTP handlers and
// the repositories: input validation, credential checks, the photo upload
// saga, and location usage bookkeeping.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/auth"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/repository"
)

const minPasswordLength = 6

// UserService handles registration, credential verification, and the
// password lifecycle.
type UserService struct {
	repo      repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(repo repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, passwords: passwords, logger: logger}
}

// RegisterInput carries the fields accepted at registration. The security
// question pair is optional; without it the account cannot use the
// security-question reset flow.
type RegisterInput struct {
	Email            string
	Password         string
	Name             string
	SecurityQuestion string
	SecurityAnswer   string
}

// Register creates a new account. The email is stored lowercased; password
// and security answer are stored only as bcrypt hashes.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	// Both halves of the pair or neither.
	if (in.SecurityQuestion == "") != (in.SecurityAnswer == "") {
		return nil, apperror.ValidationFailed("securityQuestion", "security question and answer must be set together")
	}

	passwordHash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(in.Name),
	}
	if in.SecurityQuestion != "" {
		answerHash, err := s.passwords.Hash(normalizeAnswer(in.SecurityAnswer))
		if err != nil {
			return nil, apperror.ValidationFailed("securityAnswer", err.Error())
		}
		user.SecurityQuestion = strings.TrimSpace(in.SecurityQuestion)
		user.SecurityAnswerHash = answerHash
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// VerifyPassword checks a login attempt. It returns (nil, nil) for both an
// unknown email and a wrong password, and burns a bcrypt comparison on the
// unknown-email path so the two cases match in timing as well as in shape.
// A non-nil error means the check itself failed, not the credentials.
func (s *UserService) VerifyPassword(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			s.passwords.DummyVerify(password)
			return nil, nil
		}
		return nil, err
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, nil
	}
	return user, nil
}

// GetByID loads the account behind a session.
func (s *UserService) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// GetSecurityQuestion returns the stored question for an email. An unknown
// email or an account without a question both report found=false; the
// response never reveals whether the email is registered.
func (s *UserService) GetSecurityQuestion(ctx context.Context, email string) (question string, found bool, err error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if !user.HasSecurityQuestion() {
		return "", false, nil
	}
	return user.SecurityQuestion, true, nil
}

// ResetPasswordWithSecurityAnswer sets a new password after verifying the
// security answer. Wrong answers and unknown emails return the same error.
func (s *UserService) ResetPasswordWithSecurityAnswer(ctx context.Context, email, answer, newPassword string) (*model.User, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			s.passwords.DummyVerify(answer)
			return nil, apperror.ValidationFailed("securityAnswer", "incorrect security answer")
		}
		return nil, err
	}
	if !user.HasSecurityQuestion() {
		s.passwords.DummyVerify(answer)
		return nil, apperror.ValidationFailed("securityAnswer", "incorrect security answer")
	}
	if err := s.passwords.Verify(user.SecurityAnswerHash, normalizeAnswer(answer)); err != nil {
		return nil, apperror.ValidationFailed("securityAnswer", "incorrect security answer")
	}

	if err := s.updatePassword(ctx, user, newPassword); err != nil {
		return nil, err
	}
	s.logger.Info("password reset via security answer", "user_id", user.ID)
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (*model.User, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.passwords.Verify(user.PasswordHash, currentPassword); err != nil {
		return nil, apperror.ValidationFailed("currentPassword", "current password is incorrect")
	}
	if currentPassword == newPassword {
		return nil, apperror.ValidationFailed("newPassword", "new password must differ from the current one")
	}

	if err := s.updatePassword(ctx, user, newPassword); err != nil {
		return nil, err
	}
	s.logger.Info("password changed", "user_id", user.ID)
	return user, nil
}

// ForceChangePassword replaces the password for an account flagged with
// RequirePasswordChange. The current password is not required: the flag is
// set by an administrative reset, so the user may not know it.
func (s *UserService) ForceChangePassword(ctx context.Context, userID, newPassword string) (*model.User, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.RequirePasswordChange {
		return nil, apperror.Forbidden("password change is not required for this account")
	}

	if err := s.updatePassword(ctx, user, newPassword); err != nil {
		return nil, err
	}
	s.logger.Info("forced password change completed", "user_id", user.ID)
	return user, nil
}

func (s *UserService) updatePassword(ctx context.Context, user *model.User, newPassword string) error {
	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperror.ValidationFailed("newPassword", err.Error())
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash, false); err != nil {
		return err
	}
	user.PasswordHash = hash
	user.RequirePasswordChange = false
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

// Answers are matched case-insensitively with surrounding space stripped,
// so "Rex " still unlocks an account created with "rex".
func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
