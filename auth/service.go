package auth

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
)

const (
	// CancelDeletePath is where emailed cancellation links point.
	CancelDeletePath = "/api/v1/links/cancel-delete"

	// DefaultReauthMaxAge is how recently an owner must have re-authenticated to delete their account.
	DefaultReauthMaxAge = 10 * time.Minute
)

var (
	_ retention.Reauthenticator = (*Service)(nil)
	_ retention.CancelLinker    = (*Service)(nil)
)

// Service verifies and mints the HS256 tokens the retention service deals in.
type Service struct {
	baseURL      *url.URL
	clock        retention.Clock
	key          []byte
	parser       *jwt.Parser
	reauthMaxAge time.Duration
}

// NewService constructs a *Service signing with jwtKey
// and building links against baseURL.
func NewService(jwtKey string, baseURL *url.URL, clock retention.Clock) (*Service, error) {
	if jwtKey == "" {
		return nil, fmt.Errorf(`%w: jwt key cannot be ""`, retention.ErrBadConfig)
	}

	if baseURL == nil {
		return nil, fmt.Errorf("%w: base url cannot be nil", retention.ErrBadConfig)
	}

	if clock == nil {
		clock = retention.SystemClock{}
	}

	return &Service{
		baseURL:      baseURL,
		clock:        clock,
		key:          []byte(jwtKey),
		parser:       &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}},
		reauthMaxAge: DefaultReauthMaxAge,
	}, nil
}

// ParseCaller verifies a bearer token and returns the Caller it names.
func (s *Service) ParseCaller(token string) (retention.Caller, error) {
	claims := new(CallerClaims)
	if _, err := s.parser.ParseWithClaims(token, claims, s.keyFunc); err != nil {
		return retention.Caller{}, fmt.Errorf("%w: bearer token: %s", retention.ErrForbidden, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return retention.Caller{}, fmt.Errorf("%w: bearer token subject: %s", retention.ErrForbidden, err)
	}

	if claims.IssuedAt == nil {
		return retention.Caller{}, fmt.Errorf("%w: bearer token missing iat", retention.ErrForbidden)
	}

	c := retention.NewCaller(id, claims.Admin)
	c.IssuedAt = claims.IssuedAt.Time
	return c, nil
}

// VerifyReauth checks proof is a recent re-authentication of the account.
func (s *Service) VerifyReauth(proof string, accountID uuid.UUID) error {
	claims, err := s.parsePurpose(proof, PurposeReauth)
	if err != nil {
		return err
	}

	if claims.Subject != accountID.String() {
		return fmt.Errorf("%w: re-authentication is for another account", retention.ErrForbidden)
	}

	if claims.IssuedAt == nil || s.clock.Now().Sub(claims.IssuedAt.Time) > s.reauthMaxAge {
		return fmt.Errorf("%w: re-authentication is too old", retention.ErrForbidden)
	}

	return nil
}

// CancelLink builds the link an owner follows to cancel their deletion.
// The link stops working at expiresAt.
func (s *Service) CancelLink(accountID uuid.UUID, expiresAt time.Time) (string, error) {
	token, err := s.sign(PurposeClaims{
		Purpose: PurposeCancelDelete,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(s.clock.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return "", err
	}

	u := s.baseURL.ResolveReference(&url.URL{Path: CancelDeletePath})
	u.RawQuery = url.Values{"jwt": []string{token}}.Encode()
	return u.String(), nil
}

// CancelTarget authenticates the jwt param of a cancellation link
// and returns the account it cancels the deletion of.
func (s *Service) CancelTarget(v url.Values) (uuid.UUID, error) {
	claims, err := s.AuthenticateJWT(v, new(PurposeClaims))
	if err != nil {
		return uuid.Nil, err
	}

	pc, ok := claims.(*PurposeClaims)
	if !ok || pc.Purpose != PurposeCancelDelete {
		return uuid.Nil, fmt.Errorf("%w: not a cancellation link", retention.ErrForbidden)
	}

	id, err := uuid.Parse(pc.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: cancellation link subject: %s", retention.ErrForbidden, err)
	}

	return id, nil
}

// SignCaller mints a bearer token for c issued at iat.
func (s *Service) SignCaller(c retention.Caller, iat time.Time) (string, error) {
	return s.sign(CallerClaims{
		Admin: c.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  c.ID.String(),
			IssuedAt: jwt.NewNumericDate(iat),
		},
	})
}

// SignReauth mints a re-authentication proof for the account issued at iat.
func (s *Service) SignReauth(accountID uuid.UUID, iat time.Time) (string, error) {
	return s.sign(PurposeClaims{
		Purpose: PurposeReauth,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  accountID.String(),
			IssuedAt: jwt.NewNumericDate(iat),
		},
	})
}

func (s *Service) parsePurpose(token, purpose string) (*PurposeClaims, error) {
	claims := new(PurposeClaims)
	if _, err := s.parser.ParseWithClaims(token, claims, s.keyFunc); err != nil {
		return nil, fmt.Errorf("%w: %s token: %s", retention.ErrForbidden, purpose, err)
	}

	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: token is not a %s token", retention.ErrForbidden, purpose)
	}

	return claims, nil
}

func (s *Service) sign(claims jwt.Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: signing token: %s", retention.ErrUnexpected, err)
	}

	return token, nil
}

func (s *Service) keyFunc(*jwt.Token) (interface{}, error) { return s.key, nil }
