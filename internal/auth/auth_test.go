package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, sub, name, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"name": name,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	v := NewHMACVerifier("test-secret")
	claims, err := v.Verify(signToken(t, "test-secret", "veh-1", "Bus 12", RoleDriver))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "veh-1" || claims.Name != "Bus 12" || claims.Role != RoleDriver {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := NewHMACVerifier("test-secret")
	if _, err := v.Verify(signToken(t, "other-secret", "veh-1", "", RoleDriver)); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	v := NewHMACVerifier("test-secret")
	if _, err := v.Verify(signToken(t, "test-secret", "veh-1", "", "superuser")); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "veh-1",
		"role": RoleDriver,
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	v := NewHMACVerifier("test-secret")
	if _, err := v.Verify(signed); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestVerifyRejectsEmpty(t *testing.T) {
	v := NewHMACVerifier("test-secret")
	if _, err := v.Verify(""); err == nil {
		t.Fatal("expected error for empty token")
	}
}
