package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/recuerdame/webapp/app/repository"
	"github.com/recuerdame/webapp/internal/pkg/botnotify"
	"github.com/recuerdame/webapp/internal/pkg/database"
	"github.com/recuerdame/webapp/internal/pkg/linking"
	"github.com/recuerdame/webapp/internal/pkg/usercontext"
)

type linkWhatsAppRequest struct {
	Code string `json:"code"`
}

// HandleConnectionStatus reports which external identities are connected.
func HandleConnectionStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "user_not_found", "user does not exist")
	}

	googleConnected := false
	if _, err := repos.ProviderAccount.GetByUserAndProvider(user.ID, "google"); err == nil {
		googleConnected = true
	}

	resp := fiber.Map{
		"whatsapp": fiber.Map{"linked": user.HasChatLinked()},
		"google":   fiber.Map{"connected": googleConnected},
	}
	if user.HasChatLinked() {
		resp["whatsapp"].(fiber.Map)["chat_id"] = *user.ChatID
	}
	return c.JSON(resp)
}

// HandleLinkWhatsApp redeems a bot-issued linking code for the session user.
// On success the bot is told who claimed the chat, best-effort.
func HandleLinkWhatsApp(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req linkWhatsAppRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "malformed JSON body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := linking.Redeem(ctx, database.GetDB(), userCtx.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, linking.ErrInvalidOrExpiredCode):
			return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_or_expired_code", "the code is invalid or has expired")
		case errors.Is(err, linking.ErrAlreadyLinked):
			return jsonError(c, fiber.StatusConflict, "already_linked", "this account already has WhatsApp linked")
		default:
			return jsonError(c, fiber.StatusInternalServerError, "link_failed", "linking failed, please try again")
		}
	}

	notifier := botnotify.NewNotifierFromEnv()
	notifier.NotifyLinked(ctx, result.ChatID, userCtx.Username, GetClientIP(c))

	return c.JSON(fiber.Map{
		"ok":              true,
		"chat_id":         result.ChatID,
		"merged_orphan":   result.MergedOrphan,
		"moved_reminders": result.MovedReminders,
	})
}

// HandleUnlinkWhatsApp clears the chat identity from the session user.
func HandleUnlinkWhatsApp(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := linking.Unlink(ctx, database.GetDB(), userCtx.UserID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "unlink_failed", "could not unlink WhatsApp")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleDisconnectGoogle removes the Google connector identity.
func HandleDisconnectGoogle(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	err := repository.GetGlobalRepositories().ProviderAccount.
		DeleteByUserAndProvider(userCtx.UserID, "google")
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fiber.StatusInternalServerError, "disconnect_failed", "could not disconnect Google")
	}
	return c.JSON(fiber.Map{"ok": true})
}
