package user

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/graderly/core"
)

const bearerScheme = "Bearer"

var NowFunc = time.Now // mockable

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Role string `json:"role"`
}

func (c Claims) Principal() Principal {
	return Principal{ID: c.Subject, Role: c.Role}
}

// Authenticator issues and verifies stateless session tokens (HS256 JWTs).
type Authenticator struct {
	issuer string
	key    []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

func NewAuthenticator(conf *core.Config) *Authenticator {
	return &Authenticator{
		issuer: conf.AppName,
		key:    []byte(conf.SecretKey),
		method: jwt.SigningMethodHS256,
		ttl:    conf.Server.JWTExpirationDelta,
	}
}

// IssueToken signs {sub: usr.ID, role: usr.Role}, valid for the configured lifetime.
func (a *Authenticator) IssueToken(usr User) (string, error) {
	now := NowFunc()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			Subject:   usr.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(a.ttl).Unix(),
		},
		Role: usr.Role,
	}
	ss, err := jwt.NewWithClaims(a.method, claims).SignedString(a.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// VerifyToken parses an `Authorization: Bearer <token>` header value.
// It returns core.ErrMissingCredential when the header is empty and core.ErrInvalidCredential on any other failure.
func (a *Authenticator) VerifyToken(header string) (Claims, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Claims{}, core.ErrMissingCredential
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerScheme) {
		return Claims{}, core.ErrInvalidCredential
	}

	claims := new(Claims)
	token, err := jwt.ParseWithClaims(parts[1], claims, a.keyFunc)
	if err != nil || !token.Valid {
		return Claims{}, core.ErrInvalidCredential
	}
	if claims.Subject == "" || claims.ExpiresAt == 0 || !IsValidRole(claims.Role) {
		return Claims{}, core.ErrInvalidCredential
	}
	return *claims, nil
}

func (a *Authenticator) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() != a.method.Alg() {
		return nil, errors.Errorf("unexpected signing method %q", token.Method.Alg())
	}
	return a.key, nil
}
