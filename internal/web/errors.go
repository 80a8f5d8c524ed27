package web

import (
	"errors"
	"strings"

	sharederrors "timeline/internal/shared/errors"
	"timeline/internal/shared/i18n"
	"timeline/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// WantsJSON reports whether the client expects a JSON error body.
func WantsJSON(c *fiber.Ctx) bool {
	return strings.HasSuffix(c.Path(), ".json") ||
		strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) ||
		strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
}

// ErrorHandler renders errors that escape handlers. Infrastructure and internal detail goes to the log;
// the client only sees the catalog message for the error kind.
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return func(c *fiber.Ctx, err error) error {
		status, key := classify(err)

		entry := log.WithContext(c.UserContext()).WithFields(map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"status": status,
		})
		if status >= fiber.StatusInternalServerError {
			entry.Errorf("request failed: %v", err)
		} else {
			entry.Debugf("request rejected: %v", err)
		}

		return RespondError(c, status, key)
	}
}

// RespondError writes a JSON or plain-text error with the localized message for key.
func RespondError(c *fiber.Ctx, status int, key string) error {
	if WantsJSON(c) {
		return RespondJSONError(c, status, key)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(status).SendString(T(c, key))
}

// RespondJSONError always answers with {"success": false, "error": message}.
func RespondJSONError(c *fiber.Ctx, status int, key string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   T(c, key),
	})
}

func classify(err error) (int, string) {
	if appErr, ok := sharederrors.AsAppError(err); ok {
		status := appErr.HTTPCode
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		return status, appErr.MessageKey
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			return fe.Code, i18n.KeyErrorPageNotFound
		case fiber.StatusRequestEntityTooLarge:
			return fe.Code, i18n.KeyErrorTooLarge
		case fiber.StatusTooManyRequests:
			return fe.Code, i18n.KeyRateLimited
		}
		if fe.Code < fiber.StatusInternalServerError {
			return fe.Code, i18n.KeyErrorBadRequest
		}
		return fe.Code, sharederrors.MsgKeyInternal
	}

	return fiber.StatusInternalServerError, sharederrors.MsgKeyInternal
}
