package booking

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// SecretLength is the number of digits in a reservation secret.
const SecretLength = 4

var (
	ErrInvalidSecret   = errors.New("secret must be exactly 4 digits")
	ErrSecretMismatch  = errors.New("incorrect secret")
	ErrTooManyAttempts = errors.New("too many secret attempts, try again later")
)

// ValidateSecret checks the shape of a secret.
func ValidateSecret(secret string) error {
	if len(secret) != SecretLength {
		return ErrInvalidSecret
	}
	for _, c := range secret {
		if c < '0' || c > '9' {
			return ErrInvalidSecret
		}
	}
	return nil
}

// HashSecret validates and hashes a secret for storage.
func HashSecret(secret string) (string, error) {
	if err := ValidateSecret(secret); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret compares a candidate secret with the stored hash.
func VerifySecret(r Reservation, secret string) error {
	if err := ValidateSecret(secret); err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(r.SecretHash), []byte(secret)); err != nil {
		return ErrSecretMismatch
	}
	return nil
}

// Gate throttles secret verification per reservation so the 4-digit
// space cannot be walked quickly.
type Gate struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    time.Duration
	burst    int
}

// NewGate allows perMinute attempts per reservation with the given burst.
func NewGate(perMinute, burst int) *Gate {
	if perMinute <= 0 {
		perMinute = 5
	}
	if burst <= 0 {
		burst = 1
	}
	return &Gate{
		limiters: make(map[string]*rate.Limiter),
		every:    time.Minute / time.Duration(perMinute),
		burst:    burst,
	}
}

func (g *Gate) limiter(id string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	limiter, exists := g.limiters[id]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(g.every), g.burst)
		g.limiters[id] = limiter
	}
	return limiter
}

// Verify consumes one attempt for r and checks the secret.
func (g *Gate) Verify(r Reservation, secret string) error {
	if !g.limiter(r.ID).Allow() {
		return ErrTooManyAttempts
	}
	return VerifySecret(r, secret)
}

// Forget drops the limiter of a deleted reservation.
func (g *Gate) Forget(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.limiters, id)
}
