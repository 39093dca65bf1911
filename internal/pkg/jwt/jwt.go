package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const tokenTypeAccess = "access"

var (
	ErrInvalidToken    = errors.New("invalid or malformed token")
	ErrNotAccessToken  = errors.New("token is not an access token")
	ErrMissingEmployee = errors.New("token carries no employee")
)

type Service interface {
	GenerateAccessToken(userID, email, employeeID, companyID string) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(userID, email, employeeID, companyID string) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id":     userID,
		"email":       email,
		"employee_id": employeeID,
		"company_id":  companyID,
		"type":        tokenTypeAccess,
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// SessionFromToken reads the portal session out of an access token without
// verifying its signature. The portal never holds the signing key; the
// gateway verifies every request.
func SessionFromToken(tokenString string) (attendance.Session, error) {
	token, err := jwt.ParseInsecure([]byte(tokenString))
	if err != nil {
		return attendance.Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if tokenType := stringClaim(token, "type"); tokenType != tokenTypeAccess {
		return attendance.Session{}, ErrNotAccessToken
	}

	session := attendance.Session{
		Token:      tokenString,
		UserID:     stringClaim(token, "user_id"),
		EmployeeID: stringClaim(token, "employee_id"),
		CompanyID:  stringClaim(token, "company_id"),
		Email:      stringClaim(token, "email"),
		ExpiresAt:  token.Expiration(),
	}
	if session.EmployeeID == "" {
		return attendance.Session{}, ErrMissingEmployee
	}
	if !session.ExpiresAt.IsZero() && time.Now().After(session.ExpiresAt) {
		return attendance.Session{}, fmt.Errorf("%w: expired at %s", ErrInvalidToken, session.ExpiresAt.Format(time.RFC3339))
	}
	return session, nil
}

func stringClaim(token jwt.Token, name string) string {
	v, ok := token.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
