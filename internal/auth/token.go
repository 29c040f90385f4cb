package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/permissions"
)

var (
	// ErrNotAuthenticated is returned for unknown accounts and bad passwords.
	ErrNotAuthenticated = errors.New("auth: incorrect username or password")
	// ErrNotValidated is returned for tokens that fail verification.
	ErrNotValidated   = errors.New("auth: unable to validate user from jwt token")
	ErrSecretRequired = errors.New("auth: jwt secret is required")
)

// Messages shown to clients for the sentinels above.
const (
	MsgNotAuthenticated = "Incorrect username or password"
	MsgNotValidated     = "Unable to validate user from JWT token"
)

// TokenType is the scheme reported alongside issued tokens.
const TokenType = "bearer"

// TokenConfig controls JWT issuance.
type TokenConfig struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
	// RefreshThreshold is the remaining lifetime above which a refresh keeps
	// the current expiry.
	RefreshThreshold time.Duration
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Claims is the JWT payload: sub carries the username.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Identity returns the account described by the claims.
func (c *Claims) Identity() (Principal, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil || id == uuid.Nil || c.Subject == "" {
		return Principal{}, ErrNotValidated
	}
	role, err := permissions.ParseRole(c.Role)
	if err != nil {
		role = permissions.RoleUser
	}
	return Principal{UserID: id, Username: c.Subject, Role: role}, nil
}

// TokenIssuer signs and verifies access tokens.
type TokenIssuer struct {
	cfg    TokenConfig
	method jwt.SigningMethod
	now    func() time.Time
}

// TokenOption customises a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithTokenClock overrides the issuer time source.
func WithTokenClock(clock func() time.Time) TokenOption {
	return func(i *TokenIssuer) {
		if clock != nil {
			i.now = clock
		}
	}
}

// NewTokenIssuer validates cfg and builds an issuer. Only HMAC algorithms
// are accepted.
func NewTokenIssuer(cfg TokenConfig, opts ...TokenOption) (*TokenIssuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrSecretRequired
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("auth: unsupported jwt algorithm %q", cfg.Algorithm)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	issuer := &TokenIssuer{
		cfg:    cfg,
		method: method,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(issuer)
		}
	}
	return issuer, nil
}

// IssueToken signs a token for p that expires after the configured TTL.
func (i *TokenIssuer) IssueToken(p Principal) (Token, error) {
	if !p.IsAuthenticated() || p.Username == "" {
		return Token{}, ErrNotValidated
	}
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: p.Username},
		UserID:           p.UserID.String(),
		Role:             string(p.Role),
	}
	return i.sign(claims, i.now().Add(i.cfg.TTL))
}

func (i *TokenIssuer) sign(claims *Claims, expiresAt time.Time) (Token, error) {
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	signed, err := jwt.NewWithClaims(i.method, claims).SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: TokenType, ExpiresAt: claims.ExpiresAt.Time.UTC()}, nil
}

// ParseToken verifies signature, expiry and the required claims.
func (i *TokenIssuer) ParseToken(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotValidated
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(i.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotValidated, err)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(i.now()) {
		return nil, ErrNotValidated
	}
	if claims.Subject == "" || claims.UserID == "" {
		return nil, ErrNotValidated
	}
	return &claims, nil
}

// RefreshToken re-signs token for current, the freshly loaded account the
// token was issued to. The expiry is kept while more than the refresh
// threshold remains, otherwise it is pushed out by the TTL.
func (i *TokenIssuer) RefreshToken(token string, current Principal) (Token, error) {
	claims, err := i.ParseToken(token)
	if err != nil {
		return Token{}, err
	}
	if !current.IsAuthenticated() || current.Username == "" || claims.UserID != current.UserID.String() {
		return Token{}, ErrNotValidated
	}
	claims.Subject = current.Username
	claims.Role = string(current.Role)
	expiresAt := claims.ExpiresAt.Time
	if expiresAt.Sub(i.now()) <= i.cfg.RefreshThreshold {
		expiresAt = i.now().Add(i.cfg.TTL)
	}
	return i.sign(claims, expiresAt)
}

// Principal verifies token and returns the principal it carries.
func (i *TokenIssuer) Principal(token string) (Principal, error) {
	claims, err := i.ParseToken(token)
	if err != nil {
		return Principal{}, err
	}
	return claims.Identity()
}
