package iamcontainer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/propcore/pkg/config"
	"github.com/Abraxas-365/propcore/pkg/errx/errxfiber"
	"github.com/Abraxas-365/propcore/pkg/iam/auth"
	"github.com/Abraxas-365/propcore/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/propcore/pkg/notifx"
	"github.com/Abraxas-365/propcore/pkg/notifx/notifxconsole"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Env:   config.EnvDevelopment,
		Store: config.StoreConfig{Driver: "memory"},
		Auth: config.AuthConfig{
			AccessSecret:  "a",
			RefreshSecret: "r",
			SessionSecret: "s",
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
			BcryptCost:    4,
			CookieName:    "refreshToken",
		},
		Invite:  config.InviteConfig{TTL: 7 * 24 * time.Hour, AcceptURL: "http://localhost/invites"},
		Session: config.SessionConfig{SweepInterval: time.Hour},
	}
}

func post(t *testing.T, app *fiber.App, path, body, bearer string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestContainer_MemoryStoreServesRegisterAndInvite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	console := notifxconsole.New()
	c, err := iamcontainer.New(ctx, iamcontainer.Deps{
		Cfg:      memoryConfig(),
		Notifier: notifx.NewClient(console, console, nil),
	})
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: errxfiber.ErrorHandler})
	c.RegisterRoutes(app)
	c.StartBackgroundServices(ctx)

	resp := post(t, app, "/auth/register",
		`{"organizationName":"Acme","name":"Owner","email":"owner@acme.io","password":"Sup3r-secret"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var owner auth.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&owner))
	require.NotEmpty(t, owner.AccessToken)

	resp = post(t, app, "/invites", `{"role":"org_admin","email":"admin@acme.io"}`, owner.AccessToken)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	assert.NoError(t, c.Shutdown(shutdownCtx))
}

func TestContainer_PostgresWithoutDatabase(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Driver = "postgres"

	_, err := iamcontainer.New(context.Background(), iamcontainer.Deps{Cfg: cfg})
	assert.Error(t, err)
}
