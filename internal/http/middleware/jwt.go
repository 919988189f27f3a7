package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	errwrap "github.com/pkg/errors"
)

// SubjectKey is the c.Locals key holding the authenticated token subject.
const SubjectKey = "subject"

// HS256Validator validates bearer tokens signed with a shared secret.
type HS256Validator struct {
	secret []byte
}

func NewHS256Validator(secret string) (*HS256Validator, error) {
	if secret == "" {
		return nil, errwrap.New("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret)}, nil
}

// Validate verifies tokenString and returns its subject.
func (v *HS256Validator) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errwrap.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", errwrap.Wrap(err, "HS256Validator.Validate")
	}
	if !tok.Valid {
		return "", errwrap.New("token is not valid")
	}
	return claims.Subject, nil
}

// JWT rejects requests without a valid "Authorization: Bearer" token.
func JWT(v *HS256Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		subject, err := v.Validate(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals(SubjectKey, subject)
		return c.Next()
	}
}
