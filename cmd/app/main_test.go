//go:build !integration

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horan-assistant-bot/internal/config"
	adminhttp "horan-assistant-bot/internal/infra/http"
)

func TestMintAdminToken(t *testing.T) {
	cfg := config.AdminConfig{JWTSecret: "ops-secret"}

	var out bytes.Buffer
	require.NoError(t, mintAdminToken(&out, cfg, "ops", time.Hour))
	tok := strings.TrimSpace(out.String())
	require.NotEmpty(t, tok)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/count", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	claims, err := adminhttp.NewAuthManager(cfg.JWTSecret).ParseFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestMintAdminToken_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, mintAdminToken(&out, config.AdminConfig{}, "ops", time.Hour), "no secret")
	assert.Error(t, mintAdminToken(&out, config.AdminConfig{JWTSecret: "s"}, "ops", 0), "zero ttl")
	assert.Empty(t, out.String())
}
