package auth

import (
	"fmt"
	"net/url"

	"github.com/golang-jwt/jwt/v4"
	"github.com/xy-planning-network/retention"
)

// AuthenticateJWT decodes jwt claims from the provided query params.
// If no token is set in the params, AuthenticateJWT returns ErrNotValid.
// Please note that the consuming party needs to pass appToken as a pointer
// so that it can be hydrated by ParseWithClaims.
func (s *Service) AuthenticateJWT(v url.Values, appToken jwt.Claims) (jwt.Claims, error) {
	reqToken := v.Get("jwt")
	if reqToken == "" {
		return nil, fmt.Errorf("%w: no jwt param set", retention.ErrNotValid)
	}

	token, err := s.parser.ParseWithClaims(reqToken, appToken, s.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", retention.ErrForbidden, err)
	}

	return token.Claims, nil
}
