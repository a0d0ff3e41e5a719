// Package errxfiber renders errx errors as fiber responses.
package errxfiber

import (
	"errors"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

const RequestIDHeader = "X-Request-ID"

// ErrorHandler is the fiber.Config ErrorHandler. Causes are logged and
// never rendered.
func ErrorHandler(c *fiber.Ctx, err error) error {
	requestID := c.GetRespHeader(RequestIDHeader, c.Get(RequestIDHeader))

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(errx.Response{
			Error:     fe.Message,
			Code:      "HTTP_ERROR",
			Type:      string(errx.TypeValidation),
			Status:    fe.Code,
			RequestID: requestID,
		})
	}

	resp := errx.ToResponse(err)
	resp.RequestID = requestID

	entry := logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"status":     resp.Status,
		"code":       resp.Code,
		"request_id": requestID,
	}).WithError(err)
	if resp.Status >= fiber.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	return c.Status(resp.Status).JSON(resp)
}

// NotFound is the catch-all handler for unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(errx.Response{
		Error:     "Route not found",
		Code:      "ROUTE_NOT_FOUND",
		Type:      string(errx.TypeNotFound),
		Status:    fiber.StatusNotFound,
		RequestID: c.GetRespHeader(RequestIDHeader),
	})
}
