package jwtmw

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain はテスト実行前にGinをテストモードに設定します。
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const testSecret = "test-secret-key"

// signToken はテスト用に署名済みJWTトークンを生成します。
func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims(sub any) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
}

func runMiddleware(secret, authHeader string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	AuthRequired(secret)(c)
	return w, c
}

func TestAuthRequired_ValidToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method jwt.SigningMethod
		sub    any
		want   uint
	}{
		{"success: numeric sub", jwt.SigningMethodHS256, float64(42), 42},
		{"success: string sub", jwt.SigningMethodHS256, "7", 7},
		{"success: HS512", jwt.SigningMethodHS512, float64(999), 999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			token := signToken(t, tt.method, testSecret, validClaims(tt.sub))

			w, c := runMiddleware(testSecret, "Bearer "+token)
			require.False(t, c.IsAborted(), w.Body.String())

			id, ok := UserID(c)
			assert.True(t, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestAuthRequired_Rejects(t *testing.T) {
	t.Parallel()

	noExp := jwt.MapClaims{"sub": float64(1)}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims(float64(1))).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name       string
		secret     string
		authHeader string
		wantStatus int
	}{
		{"error: no header", testSecret, "", http.StatusUnauthorized},
		{"error: basic auth", testSecret, "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"error: lowercase bearer", testSecret, "bearer token123", http.StatusUnauthorized},
		{"error: malformed token", testSecret, "Bearer not.a.valid.token", http.StatusUnauthorized},
		{"error: wrong secret", testSecret, "Bearer " + signToken(t, jwt.SigningMethodHS256, "wrong-secret", validClaims(float64(1))), http.StatusUnauthorized},
		{"error: expired", testSecret, "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": float64(1), "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"error: missing exp", testSecret, "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, noExp), http.StatusUnauthorized},
		{"error: none algorithm", testSecret, "Bearer " + unsigned, http.StatusUnauthorized},
		{"error: missing sub", testSecret, "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}), http.StatusUnauthorized},
		{"error: zero sub", testSecret, "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, validClaims(float64(0))), http.StatusUnauthorized},
		{"error: non numeric sub", testSecret, "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("alice")), http.StatusUnauthorized},
		{"error: secret not configured", "", "Bearer sometoken", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, c := runMiddleware(tt.secret, tt.authHeader)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, c.IsAborted())
			_, ok := UserID(c)
			assert.False(t, ok)
		})
	}
}

func TestSecretFromEnv(t *testing.T) {
	t.Setenv(EnvKeyJWTSecret, "from-env")
	assert.Equal(t, "from-env", SecretFromEnv())
}
