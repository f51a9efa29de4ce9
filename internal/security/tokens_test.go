package security

import (
	"testing"
	"time"
)

func TestTokenProvider_RoundTrip(t *testing.T) {
	p := NewTokenProvider("test-secret", "cafe-console", time.Hour)
	token, exp, err := p.Issue("admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned empty token")
	}
	if !exp.After(time.Now()) {
		t.Errorf("expiry %v is not in the future", exp)
	}
	username, err := p.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if username != "admin" {
		t.Errorf("username = %q, want %q", username, "admin")
	}
}

func TestTokenProvider_RejectsWrongSecret(t *testing.T) {
	p1 := NewTokenProvider("secret-one", "cafe-console", time.Hour)
	p2 := NewTokenProvider("secret-two", "cafe-console", time.Hour)
	token, _, err := p1.Issue("admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := p2.Validate(token); err != ErrInvalidToken {
		t.Errorf("Validate with wrong secret: err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenProvider_RejectsGarbage(t *testing.T) {
	p := NewTokenProvider("test-secret", "cafe-console", time.Hour)
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := p.Validate(tok); err != ErrInvalidToken {
			t.Errorf("Validate(%q): err = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestTokenProvider_RejectsExpired(t *testing.T) {
	p := NewTokenProvider("test-secret", "cafe-console", time.Hour)
	p.ttl = -time.Minute
	token, _, err := p.Issue("admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := p.Validate(token); err != ErrInvalidToken {
		t.Errorf("Validate of expired token: err = %v, want ErrInvalidToken", err)
	}
}
