// README: JWT claim verification for sessions and REST calls.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleDriver   = "driver"
	RoleAdmin    = "admin"
	RoleObserver = "observer"
)

var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrInvalidRole  = errors.New("auth: invalid role")
)

// Claims is the verified identity attached to a session or request.
type Claims struct {
	Subject string
	Name    string
	Role    string
}

// Verifier validates a raw bearer token and returns its claims.
// Identity issuance lives in an external subsystem; this side only verifies.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

type jwtClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// HMACVerifier verifies HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwtClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if !ValidRole(claims.Role) {
		return nil, ErrInvalidRole
	}
	return &Claims{Subject: claims.Subject, Name: claims.Name, Role: claims.Role}, nil
}

func ValidRole(role string) bool {
	switch role {
	case RoleDriver, RoleAdmin, RoleObserver:
		return true
	}
	return false
}
