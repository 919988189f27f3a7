package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "s3cret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	v, err := NewHS256Validator(testSecret)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop()))
	app.Use(JWT(v))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(SubjectKey).(string))
	})
	return app
}

func TestNewHS256Validator_RequiresSecret(t *testing.T) {
	_, err := NewHS256Validator("")
	assert.Error(t, err)
}

func TestJWT(t *testing.T) {
	valid := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: "alice"})
	wrongAlg := signToken(t, jwt.SigningMethodHS384, []byte(testSecret), jwt.RegisteredClaims{Subject: "alice"})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid", header: "Bearer " + valid, status: fiber.StatusOK},
		{name: "missing", header: "", status: fiber.StatusUnauthorized},
		{name: "not bearer", header: "Basic " + valid, status: fiber.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, status: fiber.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + wrongKey, status: fiber.StatusUnauthorized},
		{name: "wrong algorithm", header: "Bearer " + wrongAlg, status: fiber.StatusUnauthorized},
	}

	app := newTestApp(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			if tc.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, "alice", string(body))
			}
		})
	}
}
