package jwt

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service verifies access tokens. Tokens are minted by the identity
// provider; GenerateAccessToken exists for tooling and tests.
type Service interface {
	GenerateAccessToken(claims auth.Claims) (token string, expiresAt int64, err error)
	ParseClaims(token jwt.Token) (auth.Claims, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime time.Duration) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(claims auth.Claims) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpirationTime).Unix()

	payload := map[string]interface{}{
		"user_id":   claims.UserID,
		"tenant_id": claims.TenantID,
		"role":      string(claims.Role),
		"type":      "access",
		"exp":       expiresAt,
	}
	if claims.PersonID != nil {
		payload["person_id"] = *claims.PersonID
	}

	_, tokenString, err := j.tokenAuth.Encode(payload)
	return tokenString, expiresAt, err
}

// ParseClaims extracts caller claims from a verified access token.
func (j *JWTService) ParseClaims(token jwt.Token) (auth.Claims, error) {
	if token == nil {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	tokenType, _ := stringClaim(token, "type")
	if tokenType != "access" {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	userID, ok := stringClaim(token, "user_id")
	if !ok || userID == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	roleStr, _ := stringClaim(token, "role")
	role := auth.Role(roleStr)
	if !role.Valid() {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	tenantID, ok := stringClaim(token, "tenant_id")
	if !ok || tenantID == "" {
		return auth.Claims{}, auth.ErrTenantRequired
	}

	claims := auth.Claims{UserID: userID, TenantID: tenantID, Role: role}
	if personID, ok := stringClaim(token, "person_id"); ok && personID != "" {
		claims.PersonID = &personID
	}
	return claims, nil
}

func stringClaim(token jwt.Token, key string) (string, bool) {
	v, ok := token.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
