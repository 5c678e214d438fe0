package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthenticatorConfig configures an Authenticator
type AuthenticatorConfig struct {
	// Secret is the HMAC key shared by token issuers and verifiers
	Secret []byte
	// Issuer is set on issued tokens and required on verified ones
	Issuer string
	// TTL is how long issued tokens stay valid. Defaults to 12 hours.
	TTL time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Authenticator issues and verifies HS256 bearer
// tokens whose subject is the caller's principal
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(config AuthenticatorConfig) (*Authenticator, error) {
	if len(config.Secret) == 0 {
		return nil, fmt.Errorf("secret is required")
	}

	authenticator := &Authenticator{
		secret: config.Secret,
		issuer: config.Issuer,
		ttl:    config.TTL,
		now:    config.Now,
	}

	if authenticator.ttl <= 0 {
		authenticator.ttl = 12 * time.Hour
	}

	if authenticator.now == nil {
		authenticator.now = time.Now
	}

	return authenticator, nil
}

// Issue signs a token for principal
func (authenticator *Authenticator) Issue(principal Principal) (string, time.Time, error) {
	if !principal.Valid() {
		return "", time.Time{}, ErrNoPrincipal
	}

	now := authenticator.now().UTC()
	expiresAt := now.Add(authenticator.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   string(principal),
		Issuer:    authenticator.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(authenticator.secret)

	if err != nil {
		return "", time.Time{}, fmt.Errorf("could not sign token: %s", err)
	}

	return signed, expiresAt, nil
}

// Verify checks the token signature, expiry and issuer and
// returns the principal named by its subject
func (authenticator *Authenticator) Verify(token string) (Principal, error) {
	if token == "" {
		return "", ErrNoPrincipal
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(authenticator.now),
		jwt.WithExpirationRequired(),
	}

	if authenticator.issuer != "" {
		options = append(options, jwt.WithIssuer(authenticator.issuer))
	}

	var claims jwt.RegisteredClaims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (interface{}, error) {
		return authenticator.secret, nil
	}, options...)

	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: invalid token", ErrNoPrincipal)
	}

	principal := Principal(claims.Subject)

	if !principal.Valid() {
		return "", fmt.Errorf("%w: token has no subject", ErrNoPrincipal)
	}

	return principal, nil
}
