package httpapi

import (
	"strings"
	"testing"
	"time"
)

func TestLoginAndParseToken(t *testing.T) {
	auth := NewAuthManager("unit-test-secret-0123456789abcdef", time.Hour, "Operator", "warung123")

	resp, err := auth.Login(LoginRequest{Username: "operator", Password: "warung123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.ExpiresAt == "" {
		t.Fatalf("incomplete response: %+v", resp)
	}

	subject, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if subject != "operator" {
		t.Fatalf("expected subject operator, got %q", subject)
	}
}

func TestLoginUsernameCaseInsensitive(t *testing.T) {
	auth := NewAuthManager("unit-test-secret-0123456789abcdef", time.Hour, "operator", "warung123")
	if _, err := auth.Login(LoginRequest{Username: "  OPERATOR ", Password: "warung123"}); err != nil {
		t.Fatalf("login with padded uppercase username: %v", err)
	}
}

func TestLoginRejectsWrongCredentials(t *testing.T) {
	auth := NewAuthManager("unit-test-secret-0123456789abcdef", time.Hour, "operator", "warung123")
	if _, err := auth.Login(LoginRequest{Username: "operator", Password: "nope"}); err == nil {
		t.Fatalf("wrong password must fail")
	}
	if _, err := auth.Login(LoginRequest{Username: "someone", Password: "warung123"}); err == nil {
		t.Fatalf("wrong username must fail")
	}
}

func TestParseTokenRejectsForgeries(t *testing.T) {
	auth := NewAuthManager("unit-test-secret-0123456789abcdef", time.Hour, "operator", "warung123")
	other := NewAuthManager("a-different-secret-fedcba9876543210", time.Hour, "operator", "warung123")

	resp, err := other.Login(LoginRequest{Username: "operator", Password: "warung123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("token signed with another secret must fail")
	}
	if _, err := auth.ParseToken("garbage.token.value"); err == nil {
		t.Fatalf("malformed token must fail")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	auth := NewAuthManager("unit-test-secret-0123456789abcdef", time.Hour, "operator", "warung123")
	token, err := auth.sign("operator", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatalf("expired token must fail")
	}
}

func TestPlainPasswordHashedAtStartup(t *testing.T) {
	auth := NewAuthManager("unit-test-secret-0123456789abcdef", time.Hour, "operator", "warung123")
	if !strings.HasPrefix(auth.passwordHash, "$2") {
		t.Fatalf("plain password must be hashed, got %q", auth.passwordHash)
	}

	hashed := NewAuthManager("unit-test-secret-0123456789abcdef", time.Hour, "operator", auth.passwordHash)
	if _, err := hashed.Login(LoginRequest{Username: "operator", Password: "warung123"}); err != nil {
		t.Fatalf("login against pre-hashed credential: %v", err)
	}
}

func TestAttemptLimiter(t *testing.T) {
	limiter := newAttemptLimiter(3, time.Minute)
	key := "192.0.2.1:1234"

	for i := 0; i < 3; i++ {
		if !limiter.allowed(key) {
			t.Fatalf("attempt %d should be allowed", i)
		}
		limiter.recordFailure(key)
	}
	if limiter.allowed(key) {
		t.Fatalf("limiter must block after max failures")
	}
	if !limiter.allowed("198.51.100.7:9000") {
		t.Fatalf("limiter must track keys independently")
	}

	limiter.reset(key)
	if !limiter.allowed(key) {
		t.Fatalf("reset must unblock the key")
	}
}
