package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/recuerdame/webapp/app/models"
	"github.com/recuerdame/webapp/app/repository"
	"github.com/recuerdame/webapp/internal/pkg/usercontext"
)

type contactRequest struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Alias *string `json:"alias,omitempty"`
}

// requireChatID resolves the authenticated user's linked chat identity.
// Contacts live in the bot's address book, so a linked WhatsApp is required.
func requireChatID(c *fiber.Ctx) (string, error) {
	userCtx := usercontext.GetUserContext(c)
	user, err := repository.GetGlobalRepositories().User.GetByID(userCtx.UserID)
	if err != nil {
		return "", jsonError(c, fiber.StatusNotFound, "user_not_found", "user does not exist")
	}
	if !user.HasChatLinked() {
		return "", jsonError(c, fiber.StatusConflict, "whatsapp_not_linked", "link WhatsApp before managing contacts")
	}
	return *user.ChatID, nil
}

// HandleContactList returns the address book of the user's chat identity.
func HandleContactList(c *fiber.Ctx) error {
	chatID, err := requireChatID(c)
	if err != nil {
		return err
	}

	contacts, err := repository.GetGlobalRepositories().Contact.GetByChatID(chatID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not load contacts")
	}
	return c.JSON(fiber.Map{"contacts": contacts})
}

// HandleContactCreate adds a contact to the address book.
func HandleContactCreate(c *fiber.Ctx) error {
	chatID, err := requireChatID(c)
	if err != nil {
		return err
	}

	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "malformed JSON body")
	}
	name := strings.TrimSpace(req.Name)
	phone := models.NormalizePhone(req.Phone)
	if name == "" || phone == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "name and phone are required")
	}

	contact := &models.Contact{
		ChatID: chatID,
		Name:   name,
		Phone:  phone,
		Alias:  req.Alias,
	}
	if err := repository.GetGlobalRepositories().Contact.Create(contact); err != nil {
		return jsonError(c, fiber.StatusConflict, "create_failed", "a contact with that name already exists")
	}
	return c.Status(fiber.StatusCreated).JSON(contact)
}

// HandleContactUpdate edits an owned contact.
func HandleContactUpdate(c *fiber.Ctx) error {
	chatID, err := requireChatID(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "contact id must be numeric")
	}

	contactRepo := repository.GetGlobalRepositories().Contact
	contact, err := contactRepo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "contact does not exist")
		}
		return jsonError(c, fiber.StatusInternalServerError, "update_failed", "could not load contact")
	}
	if contact.ChatID != chatID {
		return jsonError(c, fiber.StatusNotFound, "not_found", "contact does not exist")
	}

	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "malformed JSON body")
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		contact.Name = name
	}
	if phone := models.NormalizePhone(req.Phone); phone != "" {
		contact.Phone = phone
	}
	contact.Alias = req.Alias

	if err := contactRepo.Update(contact); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "update_failed", "could not save contact")
	}
	return c.JSON(contact)
}

// HandleContactDelete removes an owned contact.
func HandleContactDelete(c *fiber.Ctx) error {
	chatID, err := requireChatID(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "contact id must be numeric")
	}

	contactRepo := repository.GetGlobalRepositories().Contact
	contact, err := contactRepo.GetByID(uint(id))
	if err != nil || contact.ChatID != chatID {
		return jsonError(c, fiber.StatusNotFound, "not_found", "contact does not exist")
	}

	if err := contactRepo.Delete(contact.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "delete_failed", "could not delete contact")
	}
	return c.JSON(fiber.Map{"ok": true})
}
