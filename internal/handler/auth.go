package handler

import (
	"net/http"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/auth"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/service"
)

// AuthHandler serves the /api/auth routes.
type AuthHandler struct {
	users         *service.UserService
	tokens        *auth.TokenService
	secureCookies bool
}

func NewAuthHandler(users *service.UserService, tokens *auth.TokenService, secureCookies bool) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, secureCookies: secureCookies}
}

type registerRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=6,max=72"`
	Name             string `json:"name" validate:"max=100"`
	SecurityQuestion string `json:"securityQuestion" validate:"max=200"`
	SecurityAnswer   string `json:"securityAnswer" validate:"max=200"`
}

type sessionResponse struct {
	User *model.User `json:"user"`
}

// Register creates an account and logs it straight in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Email:            req.Email,
		Password:         req.Password,
		Name:             req.Name,
		SecurityQuestion: req.SecurityQuestion,
		SecurityAnswer:   req.SecurityAnswer,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.issueSession(w, user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: user})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and sets the session cookie. Wrong password
// and unknown email return the identical 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.VerifyPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, apperror.Unauthenticated("invalid email or password"))
		return
	}

	if err := h.issueSession(w, user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user})
}

// Logout clears the session cookie. The JWT itself stays valid until
// expiry; there is no server-side revocation list.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me returns the account behind the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	user, err := h.users.GetByID(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

// ChangePassword verifies the current password, stores the new one, and
// rotates the session cookie so the password-change flag in the token
// cannot go stale.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.ChangePassword(r.Context(), sess.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.issueSession(w, user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user})
}

type forceChangePasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// ForceChangePassword completes an administratively required password
// change; the account must carry the RequirePasswordChange flag.
func (h *AuthHandler) ForceChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	var req forceChangePasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.ForceChangePassword(r.Context(), sess.UserID, req.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.issueSession(w, user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user})
}

type securityQuestionResponse struct {
	Found    bool   `json:"found"`
	Question string `json:"question,omitempty"`
}

// SecurityQuestion returns the stored question for an email. Always 200:
// an unknown email reports found=false instead of 404, so the endpoint
// can't be used to enumerate accounts.
func (h *AuthHandler) SecurityQuestion(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, apperror.ValidationFailed("email", "email is required"))
		return
	}

	question, found, err := h.users.GetSecurityQuestion(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, securityQuestionResponse{Found: found, Question: question})
}

type resetPasswordRequest struct {
	Email          string `json:"email" validate:"required,email"`
	SecurityAnswer string `json:"securityAnswer" validate:"required"`
	NewPassword    string `json:"newPassword" validate:"required,min=6,max=72"`
}

// ResetPassword sets a new password after checking the security answer,
// and logs the user in.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.ResetPasswordWithSecurityAnswer(r.Context(), req.Email, req.SecurityAnswer, req.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.issueSession(w, user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user})
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, user *model.User) error {
	token, err := h.tokens.Issue(user.ID, user.Email, user.RequirePasswordChange)
	if err != nil {
		return err
	}
	auth.SetSessionCookie(w, token, h.secureCookies)
	return nil
}
