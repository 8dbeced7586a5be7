package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/recuerdame/webapp/app/models"
	"github.com/recuerdame/webapp/app/repository"
	"github.com/recuerdame/webapp/internal/pkg/mail"
	"github.com/recuerdame/webapp/internal/pkg/session"
	"github.com/recuerdame/webapp/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleAuthRegister creates an inactive account and sends the activation mail.
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "malformed JSON body")
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}
	if err := user.GenerateActivationToken(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "registration_failed", "could not create account")
	}

	userRepo := repository.GetGlobalRepositories().User
	if err := userRepo.Create(user); err != nil {
		return jsonError(c, fiber.StatusConflict, "registration_failed", "email is already registered")
	}

	// Mail delivery is best-effort: the account exists either way and the
	// activation mail can be re-sent by support.
	mailer := mail.NewMailerFromEnv()
	if mailer.Enabled() {
		if err := mailer.SendActivationMail(user.Email, user.Name, user.ActivationToken); err != nil {
			log.Printf("[Auth] activation mail to %s failed: %v", user.Email, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     user.PublicID,
		"email":  user.Email,
		"status": user.Status,
	})
}

// HandleAuthActivate flips an account to active when the token matches.
func HandleAuthActivate(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_token", "activation token is required")
	}

	userRepo := repository.GetGlobalRepositories().User
	user, err := userRepo.GetByActivationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "invalid_token", "activation token not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "activation_failed", "could not activate account")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := userRepo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "activation_failed", "could not activate account")
	}

	return c.JSON(fiber.Map{"ok": true, "status": user.Status})
}

// HandleAuthLogin verifies credentials and creates the session.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "malformed JSON body")
	}

	userRepo := repository.GetGlobalRepositories().User
	user, err := userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	// One opaque failure for bad email and bad password alike.
	if err != nil || !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "login_failed", "invalid credentials")
	}
	if user.Status == models.STATUS_DISABLED {
		return jsonError(c, fiber.StatusForbidden, "account_disabled", "account is disabled")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_failed", "could not create session")
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set("email", user.Email)
	sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)
	if err := sess.Save(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_failed", "could not save session")
	}

	now := time.Now()
	user.LastLoginAt = &now
	_ = userRepo.Update(user)

	return c.JSON(fiber.Map{
		"id":    user.PublicID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

// HandleAuthLogout destroys the session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	c.Locals(usercontext.KeyFromProtected, false)
	return c.JSON(fiber.Map{"ok": true})
}
