package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/recuerdame/webapp/internal/pkg/env"
)

// UnknownClientIP is reported when no usable address can be determined.
const UnknownClientIP = "Desconocida"

// GetClientIP determines the actual client IP address considering proxies.
// X-Forwarded-For carries a list; the first entry is the original client.
func GetClientIP(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(c.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return UnknownClientIP
}

// parsePagination reads page/limit query params with sane bounds.
func parsePagination(c *fiber.Ctx, defaultLimit, maxLimit int) (offset, limit int) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return (page - 1) * limit, limit
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// publicBaseURL returns the externally reachable base URL of this app.
func publicBaseURL() string {
	base := strings.TrimSpace(env.GetEnv("PUBLIC_DOMAIN", ""))
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
