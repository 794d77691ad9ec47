package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on
// current server hardware.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification for passwords
// and security answers. It is a struct so tests can inject a low cost.
type PasswordService struct {
	cost int

	// dummyHash is compared against when the account doesn't exist, so a
	// login attempt for an unknown email costs the same as a wrong
	// password. Without it, response timing would reveal which emails are
	// registered.
	dummyHash string
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return newPasswordService(defaultCost)
}

// NewPasswordServiceForTest creates a PasswordService with a reduced bcrypt
// cost. bcrypt.MinCost makes hashing ~1000x faster; never use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return newPasswordService(cost)
}

func newPasswordService(cost int) *PasswordService {
	dummy, err := bcrypt.GenerateFromPassword([]byte("travelog-dummy-password"), cost)
	if err != nil {
		// Only possible with an out-of-range cost, which is a programmer error.
		panic(fmt.Sprintf("auth: generating dummy hash: %v", err))
	}
	return &PasswordService{cost: cost, dummyHash: string(dummy)}
}

// Hash hashes the given plaintext with bcrypt. The output embeds the salt
// and cost; store it directly.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates beyond 72 bytes; reject instead.
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks plaintext against a stored hash. Returns nil on match.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// DummyVerify burns one bcrypt comparison against a throwaway hash and
// always fails. Call it on the account-not-found path of credential checks
// to keep their timing indistinguishable from a wrong password.
func (p *PasswordService) DummyVerify(plaintext string) {
	_ = bcrypt.CompareHashAndPassword([]byte(p.dummyHash), []byte(plaintext))
}
