// Package jwtmw は外部の認証サービスが発行したJWTを検証するGinミドルウェアを提供します。
package jwtmw

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yangmw7/TradeVision-sub001/internal/platform/config"
)

const (
	// EnvKeyJWTSecret はHMAC署名鍵を保持する環境変数名です。
	EnvKeyJWTSecret = "JWT_SECRET"

	// ContextUserID は検証済みユーザーIDを格納するgin.Contextのキーです。
	ContextUserID = "userID"
)

var errNoSubject = errors.New("token has no usable sub claim")

// SecretFromEnv はJWT_SECRETを読み込みます。
func SecretFromEnv() string {
	return config.String(EnvKeyJWTSecret, "")
}

// AuthRequired はBearerトークンを検証し、subクレームのユーザーIDをコンテキストに設定します。
// 署名方式はHMACのみ、expクレームは必須です。secretが空の場合はすべて500で拒否します。
func AuthRequired(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if len(key) == 0 {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims, func(t *jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		userID, err := subject(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// UserID は検証済みのユーザーIDを返します。
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// subject はsubクレームを数値のユーザーIDに変換します。JSONの数値と数字の文字列のどちらも受け付けます。
func subject(claims jwt.MapClaims) (uint, error) {
	switch v := claims["sub"].(type) {
	case float64: // JWTの数値はfloat64としてデコードされる
		if v < 1 || v != float64(uint(v)) {
			return 0, errNoSubject
		}
		return uint(v), nil
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return 0, errNoSubject
		}
		return uint(n), nil
	default:
		return 0, errNoSubject
	}
}
