package identity

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// AccessClaims совпадают с тем, что подписывает auth-service (RS256, sub = user id).
// Bot есть только в сервисных токенах бэкендов ботов.
type AccessClaims struct {
	jwt.StandardClaims
	Name string `json:"name,omitempty"`
	Bot  string `json:"bot,omitempty"`
}

type JWTVerifier struct {
	public    *rsa.PublicKey
	issuer    string
	audience  string
	clockSkew time.Duration
	now       func() time.Time
}

func NewJWTVerifier(public *rsa.PublicKey, issuer, audience string, clockSkew time.Duration) *JWTVerifier {
	return &JWTVerifier{
		public:    public,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
		now:       time.Now,
	}
}

func (v *JWTVerifier) Resolve(_ context.Context, cred Credentials) (*domain.Caller, error) {
	raw, err := bearer(cred.Authorization)
	if err != nil {
		return nil, err
	}

	claims := &AccessClaims{}
	parser := &jwt.Parser{SkipClaimsValidation: true} // время проверяем сами, с допуском clockSkew
	token, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok || t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.public, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token: %v", domain.ErrNotAuthenticated, err)
	}

	if !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: invalid issuer", domain.ErrNotAuthenticated)
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("%w: invalid audience", domain.ErrNotAuthenticated)
	}

	now := v.now()
	nbf := time.Unix(claims.NotBefore, 0).Add(-v.clockSkew)
	exp := time.Unix(claims.ExpiresAt, 0).Add(v.clockSkew)
	if claims.ExpiresAt == 0 || now.Before(nbf) || now.After(exp) {
		return nil, fmt.Errorf("%w: token expired", domain.ErrNotAuthenticated)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: invalid subject", domain.ErrNotAuthenticated)
	}
	return &domain.Caller{UserID: domain.UserID(id), DisplayName: claims.Name, Bot: domain.BotID(claims.Bot)}, nil
}

func LoadRSAPublicKeyFromPEM(path string) (*rsa.PublicKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPublicKeyFromPEM(b)
}
