package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a staff password at the configured bcrypt cost. An
// out-of-range cost is clamped to the bcrypt default so a misconfigured
// deployment degrades to a sane hash instead of erroring on every login.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its stored hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
