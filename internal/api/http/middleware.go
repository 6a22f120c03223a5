package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-service/internal/observability"
	"github.com/quickdesk/helpdesk-service/pkg/errorutil"
	"github.com/quickdesk/helpdesk-service/pkg/metrics"
)

// RegisterMiddlewares attaches the global chain: request timeout, error
// rendering and request logging, in that order.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeout(timeout))
	}
	app.Use(errorRenderer(logger))
	app.Use(observability.RequestLogger(logger))
}

func requestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorRenderer converts every error, panics included, into the standard
// envelope {"error": {code, message, details?}}.
func errorRenderer(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered",
						zap.Any("panic", r),
						zap.ByteString("stack", debug.Stack()))
					err = errorutil.NewInternalError(nil)
				}
			}()
			return c.Next()
		}()
		if err != nil {
			renderError(c, logger, err)
		}
		return nil
	}
}

func renderError(c *fiber.Ctx, logger *zap.Logger, err error) {
	domainErr := errorutil.ToDomainError(err)
	metrics.HTTPErrors.WithLabelValues(c.Method(), c.Route().Path, domainErr.Code).Inc()
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("request failed", zap.Error(domainErr))
	}

	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	c.Status(domainErr.HTTPStatus)
	_ = c.JSON(fiber.Map{"error": body})
}
