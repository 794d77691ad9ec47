package model

import "time"

// User is a registered account. Passwords and security answers are stored
// only as bcrypt hashes; the plaintext never leaves the auth layer.
type User struct {
	ID                    string    `json:"id"`
	Email                 string    `json:"email"`
	PasswordHash          string    `json:"-"`
	Name                  string    `json:"name,omitempty"`
	RequirePasswordChange bool      `json:"requirePasswordChange"`
	SecurityQuestion      string    `json:"-"`
	SecurityAnswerHash    string    `json:"-"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// HasSecurityQuestion reports whether the account can use the
// security-question reset flow.
func (u *User) HasSecurityQuestion() bool {
	return u.SecurityQuestion != "" && u.SecurityAnswerHash != ""
}
