package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// Claims are the access token claims the API reads: the subject is the caller's id,
// role one of the order roles, and city the courier's home city.
type Claims struct {
	Role string `json:"role"`
	City string `json:"city,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller of a request.
type Principal struct {
	Actor order.Actor
	City  string
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

func NewAuthenticator(secret string) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errs.NewValueIsRequiredError("secret")
	}
	return &Authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Issue signs a token for actor. A zero ttl issues a token that does not expire.
func (a *Authenticator) Issue(actor order.Actor, city string, ttl time.Duration, now time.Time) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	claims := Claims{
		Role: actor.Role().String(),
		City: city,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  actor.ID().String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses a signed token into a Principal.
func (a *Authenticator) Verify(raw string) (Principal, error) {
	var claims Claims
	if _, err := a.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}); err != nil {
		return Principal{}, err
	}

	role, err := order.ParseRole(claims.Role)
	if err != nil {
		return Principal{}, err
	}
	id, err := kernel.UUIDFromString(claims.Subject)
	if err != nil {
		return Principal{}, err
	}
	actor, err := order.NewActor(role, id)
	if err != nil {
		return Principal{}, err
	}
	return Principal{Actor: actor, City: claims.City}, nil
}

// Middleware rejects requests without a valid bearer token and stores the Principal
// of the others in the echo context.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			principal, err := a.Verify(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token").SetInternal(err)
			}
			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on an
// EventSource, so the stream endpoint may pass the token as access_token instead.
func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get(echo.HeaderAuthorization); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if token := r.URL.Query().Get("access_token"); token != "" {
		return token, true
	}
	return "", false
}

func principalOf(c echo.Context) (Principal, error) {
	p, ok := c.Get(principalKey).(Principal)
	if !ok {
		return Principal{}, errors.New("request is not authenticated")
	}
	return p, nil
}

func requireRole(p Principal, role order.Role, action string) error {
	if p.Actor.Role() != role {
		return order.NewForbiddenError(p.Actor.Role(), action)
	}
	return nil
}
