package security

import "golang.org/x/crypto/bcrypt"

// bcrypt work factor, sized for interactive login latency.
const bcryptCost = 12

// HashPassword derives the bcrypt hash stored on the account record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
