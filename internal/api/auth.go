package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

const bearerPrefix = "Bearer "

// clockSkew is the leeway, in seconds, granted to exp and nbf.
const clockSkew = 60

// userIDKey is the echo context key holding the authenticated subject.
const userIDKey = "user_id"

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Auth validates HS256 tokens signed with a shared secret.
type Auth struct {
	secret []byte
	parser *jwt.Parser
}

func NewAuth(secret string) *Auth {
	return &Auth{
		secret: []byte(secret),
		// Time claims are checked below, with skew.
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation()),
	}
}

// UserIDFromAuthHeader extracts the user identifier from the Authorization header.
func (a *Auth) UserIDFromAuthHeader(h string) (string, error) {
	token, err := bearerToken(h)
	if err != nil {
		return "", err
	}
	return a.UserIDFromBearer(token)
}

// UserIDFromBearer verifies token and returns its sub claim.
func (a *Auth) UserIDFromBearer(token string) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("auth secret not configured")
	}
	parsed, err := a.parser.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	now := time.Now().Unix()
	if !claims.VerifyExpiresAt(now-clockSkew, true) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now+clockSkew, false) {
		return "", errors.New("token not valid yet")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

func bearerToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errMissingAuthorization
	}
	if len(raw) <= len(bearerPrefix) || !strings.HasPrefix(raw, bearerPrefix) {
		return "", errBadAuthorization
	}
	token := raw[len(bearerPrefix):]
	if strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's id on the context.
func RequireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated caller, if any.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
