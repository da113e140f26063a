package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/lshigami/Assessa/config"
	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/model"
)

// Claims is the identity carried by a verified bearer token.
type Claims struct {
	UserID uint
	Name   string
	Email  string
	Role   model.Role
}

func (c Claims) IsHR() bool        { return c.Role == model.RoleHR }
func (c Claims) IsCandidate() bool { return c.Role == model.RoleCandidate }

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg *config.Config) *TokenManager {
	return newTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
}

func newTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token for the user.
func (m *TokenManager) Issue(user *model.User) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"userId": user.ID,
		"name":   user.Name,
		"email":  user.Email,
		"role":   string(user.Role),
		"iat":    now.Unix(),
		"exp":    now.Add(m.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns its claims. Every failure is Unauthorized.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperror.Unauthorized("missing token")
	}

	parser := jwt.Parser{}
	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.Unauthorized("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperror.Unauthorized("invalid token payload")
	}
	// MapClaims.Valid uses the wall clock; re-check expiry against ours.
	if !claims.VerifyExpiresAt(m.now().Unix(), true) {
		return nil, apperror.Unauthorized("invalid or expired token")
	}

	userID, ok := claims["userId"].(float64)
	if !ok || userID <= 0 {
		return nil, apperror.Unauthorized("invalid token payload")
	}
	role := model.Role(stringClaim(claims, "role"))
	if !role.Valid() {
		return nil, apperror.Unauthorized("invalid token payload")
	}

	return &Claims{
		UserID: uint(userID),
		Name:   stringClaim(claims, "name"),
		Email:  stringClaim(claims, "email"),
		Role:   role,
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
