package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// RequesterKey is the gin context key holding the authenticated requester id
const RequesterKey = "requester"

// TokenValidator turns an Authorization header into a requester id
type TokenValidator interface {
	ValidateToken(authHeader string) (string, bool)
}

// JWTVerifier verifies HMAC-signed bearer tokens. The sub claim is the
// requester (analyst or bot) id used for votes and access checks.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a new JWT verifier. issuer may be empty to accept
// tokens from any issuer.
func NewJWTVerifier(secret, issuer string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}, nil
}

// ExtractSubject verifies tokenString and returns its sub claim
func (v *JWTVerifier) ExtractSubject(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return "", fmt.Errorf("empty token")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, options...)
	if err != nil {
		return "", fmt.Errorf("failed to verify token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("no sub claim in token")
	}
	return claims.Subject, nil
}

// IssueToken signs a token for subject that expires after ttl
func (v *JWTVerifier) IssueToken(subject string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("subject must not be empty")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// ValidateToken is a middleware-friendly function that validates a JWT token
func (v *JWTVerifier) ValidateToken(authHeader string) (string, bool) {
	if authHeader == "" {
		return "", false
	}

	subject, err := v.ExtractSubject(authHeader)
	if err != nil {
		log.Printf("JWT validation error: %v", err)
		return "", false
	}

	return subject, true
}

// StaticValidator accepts any non-empty header as the given requester. For
// development and tests only.
type StaticValidator struct {
	Requester string
}

func (s StaticValidator) ValidateToken(authHeader string) (string, bool) {
	if authHeader == "" {
		return "", false
	}
	return s.Requester, true
}

// RequireRequester rejects requests without a valid bearer token and stores
// the requester id in the gin context
func RequireRequester(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, ok := validator.ValidateToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"details": "a valid bearer token is required",
			})
			return
		}
		c.Set(RequesterKey, requester)
		c.Next()
	}
}

// Requester returns the id stored by RequireRequester
func Requester(c *gin.Context) string {
	return c.GetString(RequesterKey)
}
