package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
)

var errInvalidBody = domain.NewError(domain.KindValidation, "INVALID_BODY", "Request body must be valid JSON.")

func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindValidation, domain.KindDuplicate:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every failure as
// {"error": CODE, "error_message": text, ...fields}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		body := fiber.Map{}
		for k, v := range de.Fields {
			body[k] = v
		}
		body["error"] = de.Code
		body["error_message"] = de.Message
		return c.Status(statusFor(de.Kind)).JSON(body)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "HTTP_ERROR"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		}
		return c.Status(fe.Code).JSON(fiber.Map{"error": code, "error_message": fe.Message})
	}

	log.Error().Err(err).Str("path", c.Path()).Str("request_id", requestID(c)).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":         "INTERNAL_ERROR",
		"error_message": "Internal server error.",
	})
}

// parseBody decodes a JSON body into v. An empty body leaves v untouched.
func parseBody(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	if err := c.App().Config().JSONDecoder(body, v); err != nil {
		return errInvalidBody
	}
	return nil
}
