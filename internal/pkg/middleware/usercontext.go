package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/recuerdame/webapp/internal/pkg/session"
	"github.com/recuerdame/webapp/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request.
// This centralizes session handling so controllers only deal with
// usercontext.GetUserContext.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Goth uses its own fiber session store on /auth/*; skip our app session
	// there to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	anonymous := func() error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return anonymous()
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		return anonymous()
	}

	username, _ := sess.Get(usercontext.KeyUsername).(string)
	email, _ := sess.Get("email").(string)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)

	userCtx := usercontext.UserContext{
		UserID:     userID.(uint),
		Username:   username,
		Email:      email,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
	}
	c.Locals("USER_CONTEXT", userCtx)
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, userID.(uint))
	c.Locals(usercontext.KeyIsAdmin, isAdmin)

	return c.Next()
}
