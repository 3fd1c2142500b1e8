package auth

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 10

// dummyHash is compared against when no account matches the email, so a
// login attempt costs the same whether or not the account exists.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// HashPassword hashes a plaintext password with bcrypt. The plaintext is not
// retained anywhere after this call.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext password matches the stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BurnPassword performs a throwaway bcrypt comparison. Callers use it on the
// account-not-found path so the response time matches a real verification.
func BurnPassword(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
