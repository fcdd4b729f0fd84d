package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"salon-booking/internal/gate"
)

func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func signOAuth(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func staticKeyfunc(key *rsa.PrivateKey) jwt.Keyfunc {
	return func(*jwt.Token) (any, error) { return &key.PublicKey, nil }
}

func TestOAuthVerifier_LoadingUntilReady(t *testing.T) {
	key := newRSAKey(t)
	v := NewOAuthVerifier("", "", zap.NewNop())
	token := signOAuth(t, key, jwt.RegisteredClaims{Subject: "g-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})

	if got := v.Resolve(context.Background(), ""); got.Status != gate.StatusUnauthenticated {
		t.Fatalf("expected unauthenticated without token, got %s", got.Status)
	}
	if got := v.Resolve(context.Background(), token); got.Status != gate.StatusLoading {
		t.Fatalf("expected loading before jwks, got %s", got.Status)
	}

	v.SetKeyfunc(staticKeyfunc(key))
	got := v.Resolve(context.Background(), token)
	if !got.IsAuthenticated() || got.Handle != "g-1" {
		t.Fatalf("expected authenticated g-1, got %+v", got)
	}
}

func TestOAuthVerifier_Verify(t *testing.T) {
	key := newRSAKey(t)
	other := newRSAKey(t)
	v := NewOAuthVerifier("salon-web", "https://accounts.example.com", zap.NewNop())
	v.SetKeyfunc(staticKeyfunc(key))

	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	good := jwt.RegisteredClaims{Subject: "g-1", Audience: jwt.ClaimStrings{"salon-web"}, Issuer: "https://accounts.example.com", ExpiresAt: exp}
	wrongAud := good
	wrongAud.Audience = jwt.ClaimStrings{"other"}
	noSub := good
	noSub.Subject = ""

	hsToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, good).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hs: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid", token: signOAuth(t, key, good)},
		{name: "wrong audience", token: signOAuth(t, key, wrongAud), wantErr: true},
		{name: "no subject", token: signOAuth(t, key, noSub), wantErr: true},
		{name: "other key", token: signOAuth(t, other, good), wantErr: true},
		{name: "hmac not accepted", token: hsToken, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := v.Verify(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && sub != "g-1" {
				t.Fatalf("expected g-1, got %q", sub)
			}
		})
	}
}

func TestOAuthVerifier_LoadWithoutURLDisables(t *testing.T) {
	v := NewOAuthVerifier("", "", zap.NewNop())
	v.Load(context.Background(), "")
	if !v.Ready() {
		t.Fatalf("expected ready when provider is disabled")
	}
	if got := v.Resolve(context.Background(), "some-token"); got.Status != gate.StatusUnauthenticated {
		t.Fatalf("expected unauthenticated with provider disabled, got %s", got.Status)
	}
	v.Close()
}

func TestOAuthVerifier_LoadStopsOnContextCancel(t *testing.T) {
	v := NewOAuthVerifier("", "", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		v.Load(ctx, "http://127.0.0.1:1/jwks.json")
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("load did not return after cancel")
	}
	if v.Ready() {
		t.Fatalf("expected not ready after failed load")
	}
}
