package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
	if _, err := HashPassword("abc"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password err = %v, want ErrWeakPassword", err)
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := map[string]string{
		"ADMIN":       "ADMIN",
		"admin":       "ADMIN",
		"ROLE_ADMIN":  "ADMIN",
		" role_staff": "STAFF",
		"":            "",
	}
	for in, want := range cases {
		if got := NormalizeRole(in); got != want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasRole(t *testing.T) {
	if !HasRole("ROLE_STAFF", RoleAdmin, RoleStaff) {
		t.Error("staff should pass the staff-or-admin guard")
	}
	if HasRole("STAFF", RoleAdmin) {
		t.Error("staff must not pass the admin guard")
	}
	if HasRole("", RoleAdmin, RoleStaff) {
		t.Error("empty role must never pass")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, "glass-shop")
	token, exp, err := issuer.Issue("alice", "role_admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %v is not in the future", exp)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Username != "alice" || claims.Role != RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenRejections(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, "glass-shop")
	good, _, _ := issuer.Issue("alice", RoleStaff)

	expired := NewTokenIssuer("test-secret", time.Hour, "glass-shop")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.Issue("alice", RoleStaff)

	otherKey := NewTokenIssuer("other-secret", time.Hour, "glass-shop")
	forged, _, _ := otherKey.Issue("alice", RoleAdmin)

	badRole, _, _ := issuer.Issue("alice", "OWNER")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "alice", "role": "ADMIN", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"garbage":   "not-a-token",
		"expired":   old,
		"wrong key": forged,
		"bad role":  badRole,
		"alg none":  none,
		"tampered":  good + "x",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := issuer.Parse(tok); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
