package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

func signToken(t *testing.T, key *rsa.PrivateKey, claims AccessClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestJWTVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	now := time.Unix(1_700_000_000, 0)
	v := NewJWTVerifier(&key.PublicKey, "auth", "planet", 30*time.Second)
	v.now = func() time.Time { return now }

	valid := AccessClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "42",
			Issuer:    "auth",
			Audience:  "planet",
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
			ExpiresAt: now.Add(15 * time.Minute).Unix(),
		},
		Name: "Ann",
	}

	c, err := v.Resolve(context.Background(), Credentials{Authorization: "Bearer " + signToken(t, key, valid)})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.UserID != 42 || c.DisplayName != "Ann" || c.Bot != "" {
		t.Fatalf("unexpected caller: %+v", c)
	}

	service := valid
	service.Bot = "quiz"
	c, err = v.Resolve(context.Background(), Credentials{Authorization: "Bearer " + signToken(t, key, service)})
	if err != nil {
		t.Fatalf("resolve service token: %v", err)
	}
	if !c.ActsAs("quiz") || c.ActsAs("dice") {
		t.Fatalf("service token must act only as its bot: %+v", c)
	}

	// в пределах clockSkew после exp
	skewed := valid
	skewed.ExpiresAt = now.Add(-10 * time.Second).Unix()
	if _, err := v.Resolve(context.Background(), Credentials{Authorization: "Bearer " + signToken(t, key, skewed)}); err != nil {
		t.Fatalf("token within clock skew must pass: %v", err)
	}

	bad := map[string]AccessClaims{}
	expired := valid
	expired.ExpiresAt = now.Add(-time.Minute).Unix()
	bad["expired"] = expired
	wrongIss := valid
	wrongIss.Issuer = "other"
	bad["issuer"] = wrongIss
	wrongAud := valid
	wrongAud.Audience = "other"
	bad["audience"] = wrongAud
	badSub := valid
	badSub.Subject = "abc"
	bad["subject"] = badSub

	for name, claims := range bad {
		_, err := v.Resolve(context.Background(), Credentials{Authorization: "Bearer " + signToken(t, key, claims)})
		if !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Fatalf("%s: expected not authenticated, got %v", name, err)
		}
	}

	other, _ := rsa.GenerateKey(rand.Reader, 2048)
	if _, err := v.Resolve(context.Background(), Credentials{Authorization: "Bearer " + signToken(t, other, valid)}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("foreign signature must fail, got %v", err)
	}
	if _, err := v.Resolve(context.Background(), Credentials{}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("missing token must fail, got %v", err)
	}
}

func TestHeaderResolver(t *testing.T) {
	var r HeaderResolver
	c, err := r.Resolve(context.Background(), Credentials{Authorization: "Bearer x", UserID: " 7 "})
	if err != nil || c.UserID != 7 || c.ActsAs("") {
		t.Fatalf("unexpected result: %+v %v", c, err)
	}
	c, err = r.Resolve(context.Background(), Credentials{Authorization: "Bearer x", UserID: "7", BotID: " dice "})
	if err != nil || !c.ActsAs("dice") {
		t.Fatalf("bot header: %+v %v", c, err)
	}
	for _, cred := range []Credentials{
		{UserID: "7"},
		{Authorization: "Bearer x"},
		{Authorization: "Bearer x", UserID: "-1"},
		{Authorization: "Basic x", UserID: "7"},
	} {
		if _, err := r.Resolve(context.Background(), cred); !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Fatalf("%+v: expected not authenticated, got %v", cred, err)
		}
	}
}

func TestCallerContext(t *testing.T) {
	if CallerFrom(context.Background()) != nil {
		t.Fatalf("empty context has no caller")
	}
	ctx := WithCaller(context.Background(), &domain.Caller{UserID: 3})
	if c := CallerFrom(ctx); c == nil || c.UserID != 3 {
		t.Fatalf("unexpected caller: %+v", c)
	}
}
