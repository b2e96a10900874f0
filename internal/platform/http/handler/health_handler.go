// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check は依存先1つの疎通確認です。
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler は /healthz（プロセスの生存）と /readyz（依存先の疎通）を処理します。
type HealthHandler struct {
	checks  []Check
	timeout time.Duration
}

// NewHealthHandler はHealthHandlerを生成します。checksはReadyでのみ実行されます。
func NewHealthHandler(timeout time.Duration, checks ...Check) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{checks: checks, timeout: timeout}
}

// Live はプロセスが応答できることだけを返します。依存先は確認しません。
func (h *HealthHandler) Live(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Ready はすべての依存先にPingし、1つでも失敗すれば503を返します。
// 現在値の取得元は必須ではないため含めません。
func (h *HealthHandler) Ready(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Ping(ctx); err != nil {
			slog.Warn("依存先の疎通確認に失敗", "check", chk.Name, "error", err)
			results[chk.Name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[chk.Name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}
