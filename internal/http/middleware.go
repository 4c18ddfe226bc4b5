package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/service"
)

const (
	localCaller    = "caller"
	localRequestID = "request_id"

	// AccessCookie holds the access token for cookie based sessions.
	AccessCookie = "access_token"
)

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(localRequestID).(string)
	return id
}

// RequestLogger tags the request with an id and logs one event once the
// response status is known.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(localRequestID, id)
		c.Set(fiber.HeaderXRequestID, id)

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		ev = ev.Str("request_id", id).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start))
		if caller, ok := c.Locals(localCaller).(domain.Caller); ok {
			ev = ev.Int64("user_id", caller.UserID)
		}
		ev.Msg("request")
		return nil
	}
}

// bearerToken returns the token from the Authorization header, falling back
// to the session cookie.
func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return c.Cookies(AccessCookie)
}

// RequireAuth resolves the caller or fails with UNAUTHENTICATED.
func RequireAuth(users *service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := users.Authenticate(c.UserContext(), bearerToken(c))
		if err != nil {
			return err
		}
		c.Locals(localCaller, caller)
		return c.Next()
	}
}

func callerOf(c *fiber.Ctx) domain.Caller {
	caller, _ := c.Locals(localCaller).(domain.Caller)
	return caller
}
