package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/recuerdame/webapp/app/repository"
	"github.com/recuerdame/webapp/internal/pkg/usercontext"
)

type preferencesRequest struct {
	Locale        *string `json:"locale"`
	DigestEnabled *bool   `json:"digest_enabled"`
	BriefEnabled  *bool   `json:"brief_enabled"`
	DigestHour    *int    `json:"digest_hour"`
}

// HandleUserMe returns the authenticated user's profile.
func HandleUserMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalRepositories().User.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "user_not_found", "user does not exist")
	}

	return c.JSON(fiber.Map{
		"id":             user.PublicID,
		"name":           user.Name,
		"email":          user.Email,
		"role":           user.Role,
		"status":         user.Status,
		"chat_linked":    user.HasChatLinked(),
		"locale":         user.Locale,
		"digest_enabled": user.DigestEnabled,
		"brief_enabled":  user.BriefEnabled,
		"digest_hour":    user.DigestHour,
	})
}

// HandleUserUpdatePreferences patches the notification preferences. Omitted
// fields keep their current values.
func HandleUserUpdatePreferences(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req preferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "malformed JSON body")
	}

	userRepo := repository.GetGlobalRepositories().User
	user, err := userRepo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "user_not_found", "user does not exist")
	}

	prefs := repository.UserPreferences{
		Locale:        user.Locale,
		DigestEnabled: user.DigestEnabled,
		BriefEnabled:  user.BriefEnabled,
		DigestHour:    user.DigestHour,
	}
	if req.Locale != nil {
		locale := strings.TrimSpace(*req.Locale)
		if locale != "es" && locale != "en" {
			return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_locale", "locale must be es or en")
		}
		prefs.Locale = locale
	}
	if req.DigestEnabled != nil {
		prefs.DigestEnabled = *req.DigestEnabled
	}
	if req.BriefEnabled != nil {
		prefs.BriefEnabled = *req.BriefEnabled
	}
	if req.DigestHour != nil {
		if *req.DigestHour < 5 || *req.DigestHour > 22 {
			return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_digest_hour", "digest hour must be between 5 and 22")
		}
		prefs.DigestHour = *req.DigestHour
	}

	if err := userRepo.UpdatePreferences(user.ID, prefs); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "update_failed", "could not save preferences")
	}

	return c.JSON(fiber.Map{
		"locale":         prefs.Locale,
		"digest_enabled": prefs.DigestEnabled,
		"brief_enabled":  prefs.BriefEnabled,
		"digest_hour":    prefs.DigestHour,
	})
}
