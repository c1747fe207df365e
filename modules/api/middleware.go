package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/example/todo-app/domain/user"
	"github.com/example/todo-app/metrics"
	"github.com/example/todo-app/modules/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

// AuthMiddleware creates a middleware that validates JWT tokens.
func AuthMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Authorization header is required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Token is required",
			})
		}

		claims, err := authAdapter.ValidateToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(UserContextKey, claims)

		return c.Next()
	}
}

// currentUser returns the claims stored by AuthMiddleware.
func currentUser(c *fiber.Ctx) (*domain.Claims, bool) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	return claims, ok && claims != nil && claims.UserID != ""
}

// MetricsMiddleware records request counts and latency per matched route.
func MetricsMiddleware(m *metrics.PromMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}
		// route templates keep label cardinality bounded
		m.HTTPRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}

// strictJSONDecoder rejects bodies carrying fields the target type does not
// declare.
func strictJSONDecoder(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
