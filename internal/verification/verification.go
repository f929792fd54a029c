// Package verification issues and checks short-lived numeric codes for the
// sign-up flow. Codes live in an injected store; nothing is delivered.
package verification

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/i474232898/air-quality-aggregation/internal/store"
)

var (
	ErrNoCode       = errors.New("no verification code found, please request a new one")
	ErrExpired      = errors.New("verification code has expired, please request a new one")
	ErrMismatch     = errors.New("invalid verification code, please try again")
	ErrTooMany      = errors.New("too many failed attempts, please request a new code")
	ErrNoIdentifier = errors.New("email or phone is required")
)

const (
	ChannelEmail = "email"
	ChannelPhone = "phone"

	DefaultTTL = 10 * time.Minute

	// MaxFailures is how many wrong codes a key may submit before its code is revoked.
	MaxFailures = 5
)

// CodeStore is the key/value store with expiry the service keeps codes in.
type CodeStore interface {
	Put(key string, entry store.CodeEntry)
	Get(key string) (store.CodeEntry, bool)
	Fail(key string) (int, bool)
	Delete(key string)
}

// Service issues and verifies codes.
type Service struct {
	store CodeStore
	ttl   time.Duration
	now   func() time.Time
}

func NewService(s CodeStore, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: s, ttl: ttl, now: time.Now}
}

// TTL is how long an issued code stays valid.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Identifier picks the key a code is stored under: email wins over phone.
func Identifier(email, phone string) (key, channel string, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	switch {
	case email != "":
		return email, ChannelEmail, nil
	case phone != "":
		return phone, ChannelPhone, nil
	default:
		return "", "", ErrNoIdentifier
	}
}

// Send generates and stores a fresh 6-digit code for key.
func (s *Service) Send(key, channel string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	s.store.Put(key, store.CodeEntry{
		Code:      code,
		Channel:   channel,
		ExpiresAt: s.now().Add(s.ttl),
	})
	return code, nil
}

// Verify checks code for key. A matching or expired code is consumed, and
// so is a code after MaxFailures wrong guesses.
func (s *Service) Verify(key, code string) error {
	entry, ok := s.store.Get(key)
	if !ok {
		return ErrNoCode
	}
	if s.now().After(entry.ExpiresAt) {
		s.store.Delete(key)
		return ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(strings.TrimSpace(code))) != 1 {
		n, ok := s.store.Fail(key)
		if !ok {
			return ErrNoCode
		}
		if n >= MaxFailures {
			s.store.Delete(key)
			return ErrTooMany
		}
		return ErrMismatch
	}
	s.store.Delete(key)
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
