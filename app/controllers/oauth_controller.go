package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/recuerdame/webapp/app/models"
	"github.com/recuerdame/webapp/app/repository"
	"github.com/recuerdame/webapp/internal/pkg/session"
	"github.com/recuerdame/webapp/internal/pkg/usercontext"
)

// HandleOAuthBegin starts the Google consent flow for the session user.
func HandleOAuthBegin(c *fiber.Ctx) error {
	if sessionUserID(c) == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "log in before connecting Google")
	}
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and stores the connector
// identity. Unlike classic social login, the account must already exist: the
// connector only grants calendar/mail read access to a logged-in user.
func HandleOAuthCallback(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	if userID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "log in before connecting Google")
	}

	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "oauth_failed", err.Error())
	}

	var exp *time.Time
	if !u.ExpiresAt.IsZero() {
		t := u.ExpiresAt
		exp = &t
	}
	account := &models.ProviderAccount{
		UserID:         userID,
		Provider:       u.Provider,
		ProviderUserID: u.UserID,
		Email:          u.Email,
		AccessToken:    u.AccessToken,
		RefreshToken:   u.RefreshToken,
		ExpiresAt:      exp,
	}
	if err := repository.GetGlobalRepositories().ProviderAccount.Upsert(account); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "link_failed", "could not store connector tokens")
	}

	return c.Redirect(publicBaseURL()+"/connections", fiber.StatusSeeOther)
}

// sessionUserID reads the app session directly. The /auth/* paths are skipped
// by the user-context middleware (goth runs its own session store there), so
// the Locals-based helpers are empty here.
func sessionUserID(c *fiber.Ctx) uint {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return 0
	}
	id, _ := sess.Get(usercontext.KeyUserID).(uint)
	return id
}
