package user

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/graderly/core"
)

func newTestAuthenticator(key string) *Authenticator {
	return NewAuthenticator(&core.Config{
		AppName:   "Graderly",
		SecretKey: key,
		Server:    core.ServerConfig{JWTExpirationDelta: 7 * 24 * time.Hour},
	})
}

func signClaims(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	ss, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() failed: %v", err)
	}
	return ss
}

func TestAuthenticator_IssueToken(t *testing.T) {
	auth := newTestAuthenticator("secret")
	usr := User{ID: "42", Name: "T", Email: "t@test.cd", Role: RoleTeacher}

	token, err := auth.IssueToken(usr)
	if err != nil {
		t.Fatalf("IssueToken() failed: %v", err)
	}
	claims, err := auth.VerifyToken("Bearer " + token)
	if err != nil {
		t.Fatalf("VerifyToken() failed: %v", err)
	}
	if claims.Subject != usr.ID || claims.Role != usr.Role {
		t.Errorf("VerifyToken() claims = %+v; want sub %s, role %s", claims, usr.ID, usr.Role)
	}
	if got := time.Duration(claims.ExpiresAt-claims.IssuedAt) * time.Second; got != 7*24*time.Hour {
		t.Errorf("token lifetime = %v; want %v", got, 7*24*time.Hour)
	}
	if p := claims.Principal(); p != usr.Principal() {
		t.Errorf("Principal() = %+v; want %+v", p, usr.Principal())
	}
}

func TestAuthenticator_VerifyToken(t *testing.T) {
	auth := newTestAuthenticator("secret")
	usr := User{ID: "42", Role: RoleStudent}

	validToken, err := auth.IssueToken(usr)
	if err != nil {
		t.Fatalf("IssueToken() failed: %v", err)
	}

	// generate an expired token
	NowFunc = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	expiredToken, err := auth.IssueToken(usr)
	NowFunc = time.Now // reset
	if err != nil {
		t.Fatalf("IssueToken() failed: %v", err)
	}

	otherKeyToken, err := newTestAuthenticator("other").IssueToken(usr)
	if err != nil {
		t.Fatalf("IssueToken() failed: %v", err)
	}

	exp := time.Now().Add(time.Hour).Unix()
	noneToken := signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &Claims{
		StandardClaims: jwt.StandardClaims{Subject: "42", ExpiresAt: exp},
		Role:           RoleTeacher,
	})
	badRoleToken := signClaims(t, jwt.SigningMethodHS256, []byte("secret"), &Claims{
		StandardClaims: jwt.StandardClaims{Subject: "42", ExpiresAt: exp},
		Role:           "admin",
	})
	noSubToken := signClaims(t, jwt.SigningMethodHS256, []byte("secret"), &Claims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: exp},
		Role:           RoleTeacher,
	})
	noExpToken := signClaims(t, jwt.SigningMethodHS256, []byte("secret"), &Claims{
		StandardClaims: jwt.StandardClaims{Subject: "42"},
		Role:           RoleTeacher,
	})

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "no header", wantErr: core.ErrMissingCredential},
		{name: "blank header", header: "   ", wantErr: core.ErrMissingCredential},
		{name: "no scheme", header: validToken, wantErr: core.ErrInvalidCredential},
		{name: "wrong scheme", header: "Token " + validToken, wantErr: core.ErrInvalidCredential},
		{name: "garbage", header: "Bearer lmaooolol", wantErr: core.ErrInvalidCredential},
		{name: "expired token", header: "Bearer " + expiredToken, wantErr: core.ErrInvalidCredential},
		{name: "signed with another key", header: "Bearer " + otherKeyToken, wantErr: core.ErrInvalidCredential},
		{name: "unsigned token", header: "Bearer " + noneToken, wantErr: core.ErrInvalidCredential},
		{name: "unknown role", header: "Bearer " + badRoleToken, wantErr: core.ErrInvalidCredential},
		{name: "no subject", header: "Bearer " + noSubToken, wantErr: core.ErrInvalidCredential},
		{name: "no expiry", header: "Bearer " + noExpToken, wantErr: core.ErrInvalidCredential},
		{name: "valid token", header: "Bearer " + validToken},
		{name: "case-insensitive scheme", header: "bearer " + validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.VerifyToken(tt.header); err != tt.wantErr {
				t.Errorf("VerifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
