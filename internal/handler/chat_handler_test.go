package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dataset-explorer-be/internal/pkg/logger"
	internalWS "dataset-explorer-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	NewChatHandler(nil, internalWS.NewHub(nil, logger.NewNopLogger()), logger.NewNopLogger()).RegisterRoutes(app.Group("/api"))
	return app
}

func TestServeWsHandshake(t *testing.T) {
	t.Setenv("JWT_SECRET", "ws-secret")
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).SignedString([]byte("ws-secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{name: "missing token", target: "/api/chat/v1/ws", want: fiber.StatusUnauthorized},
		{name: "bad token", target: "/api/chat/v1/ws?token=nope", want: fiber.StatusUnauthorized},
		{name: "query token without upgrade", target: "/api/chat/v1/ws?token=" + signed, want: fiber.StatusUpgradeRequired},
		{name: "header token without upgrade", target: "/api/chat/v1/ws", header: "Bearer " + signed, want: fiber.StatusUpgradeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := newTestApp().Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
