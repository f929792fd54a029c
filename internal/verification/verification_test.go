package verification

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/i474232898/air-quality-aggregation/internal/store"
)

func newTestService(now *time.Time) *Service {
	s := NewService(store.NewCodeStore(), 10*time.Minute)
	s.now = func() time.Time { return *now }
	return s
}

func TestSendAndVerify(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(&now)

	code, err := s.Send("user@example.com", ChannelEmail)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	if n, err := strconv.Atoi(code); err != nil || n < 100000 || n > 999999 {
		t.Fatalf("code %q is not a 6-digit number", code)
	}

	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}
	if err := s.Verify("user@example.com", wrong); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
	if err := s.Verify("user@example.com", code); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := s.Verify("user@example.com", code); !errors.Is(err, ErrNoCode) {
		t.Fatalf("a verified code must be consumed, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(&now)

	code, err := s.Send("+15550100", ChannelPhone)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	now = now.Add(11 * time.Minute)
	if err := s.Verify("+15550100", code); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if err := s.Verify("+15550100", code); !errors.Is(err, ErrNoCode) {
		t.Fatalf("an expired code must be removed, got %v", err)
	}
}

func TestIdentifier(t *testing.T) {
	key, channel, err := Identifier(" User@Example.com ", "+15550100")
	if err != nil || key != "user@example.com" || channel != ChannelEmail {
		t.Fatalf("email must win, got %q %q %v", key, channel, err)
	}
	key, channel, err = Identifier("", " +15550100 ")
	if err != nil || key != "+15550100" || channel != ChannelPhone {
		t.Fatalf("unexpected phone identifier %q %q %v", key, channel, err)
	}
	if _, _, err := Identifier("", ""); !errors.Is(err, ErrNoIdentifier) {
		t.Fatalf("expected ErrNoIdentifier, got %v", err)
	}
}

func TestNewServiceDefaultTTL(t *testing.T) {
	if got := NewService(store.NewCodeStore(), 0).TTL(); got != DefaultTTL {
		t.Fatalf("expected default ttl, got %v", got)
	}
}

func TestVerifyRevokesAfterMaxFailures(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(&now)

	code, err := s.Send("user@example.com", ChannelEmail)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}

	for i := 1; i < MaxFailures; i++ {
		if err := s.Verify("user@example.com", wrong); !errors.Is(err, ErrMismatch) {
			t.Fatalf("attempt %d: expected ErrMismatch, got %v", i, err)
		}
	}
	if err := s.Verify("user@example.com", wrong); !errors.Is(err, ErrTooMany) {
		t.Fatalf("expected ErrTooMany, got %v", err)
	}
	if err := s.Verify("user@example.com", code); !errors.Is(err, ErrNoCode) {
		t.Fatalf("a revoked code must not verify, got %v", err)
	}

	code, err = s.Send("user@example.com", ChannelEmail)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := s.Verify("user@example.com", code); err != nil {
		t.Fatalf("a fresh code must verify after revocation: %v", err)
	}
}
