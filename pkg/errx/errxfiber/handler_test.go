package errxfiber

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, err error) (int, errx.Response) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error { return err })

	resp, rerr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, rerr)
	defer resp.Body.Close()

	var body errx.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorHandler_RegisteredError(t *testing.T) {
	reg := errx.NewRegistry("INVITE")
	gone := reg.Register("EXPIRED", errx.TypeGone, 0, "Invite has expired")

	status, body := serve(t, fmt.Errorf("accept: %w", reg.New(gone)))

	assert.Equal(t, fiber.StatusGone, status)
	assert.Equal(t, "INVITE_EXPIRED", body.Code)
}

func TestErrorHandler_HidesPlainErrors(t *testing.T) {
	status, body := serve(t, errors.New("dial tcp 10.0.0.1:5432: refused"))

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotContains(t, body.Error, "10.0.0.1")
}

func TestErrorHandler_FiberError(t *testing.T) {
	status, _ := serve(t, fiber.ErrBadRequest)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
