package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/recuerdame/webapp/app/models"
	"github.com/recuerdame/webapp/app/repository"
	"github.com/recuerdame/webapp/internal/pkg/entitlements"
	"github.com/recuerdame/webapp/internal/pkg/usercontext"
)

type reminderRequest struct {
	ReminderText   string  `json:"reminder_text"`
	ScheduledAt    string  `json:"scheduled_at"`
	Recurrence     string  `json:"recurrence"`
	RecurrenceDay  *int    `json:"recurrence_day,omitempty"`
	RecurrenceTime *string `json:"recurrence_time,omitempty"`
}

// HandleReminderList returns the user's reminders. With from/to or month query
// params the list is range-filtered, otherwise paginated.
func HandleReminderList(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	reminderRepo := repository.GetGlobalRepositories().Reminder

	if month := strings.TrimSpace(c.Query("month")); month != "" {
		start, err := time.Parse("2006-01", month)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid_month", "month must be YYYY-MM")
		}
		reminders, err := reminderRepo.GetByUserIDAndRange(userCtx.UserID, start, start.AddDate(0, 1, 0))
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not load reminders")
		}
		return c.JSON(fiber.Map{"reminders": reminders})
	}

	if from, to := c.Query("from"), c.Query("to"); from != "" && to != "" {
		fromT, err1 := time.Parse(time.RFC3339, from)
		toT, err2 := time.Parse(time.RFC3339, to)
		if err1 != nil || err2 != nil || !toT.After(fromT) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_range", "from/to must be RFC3339 with to after from")
		}
		reminders, err := reminderRepo.GetByUserIDAndRange(userCtx.UserID, fromT, toT)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not load reminders")
		}
		return c.JSON(fiber.Map{"reminders": reminders})
	}

	offset, limit := parsePagination(c, 50, 200)
	reminders, err := reminderRepo.GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not load reminders")
	}
	total, _ := reminderRepo.CountByUserID(userCtx.UserID)
	return c.JSON(fiber.Map{"reminders": reminders, "total": total})
}

// HandleReminderCreate creates a reminder for the authenticated user.
func HandleReminderCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req reminderRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "malformed JSON body")
	}

	reminder, err := reminderFromRequest(&req)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}
	reminder.UserID = userCtx.UserID
	reminder.Source = models.ReminderSourceWeb

	if _, err := entitlements.CheckReminderQuota(userCtx.UserID); err != nil {
		if errors.Is(err, entitlements.ErrReminderLimitReached) {
			return jsonError(c, fiber.StatusForbidden, "reminder_limit_reached",
				"the current plan's reminder limit is reached")
		}
		return jsonError(c, fiber.StatusInternalServerError, "create_failed", "could not check plan limits")
	}

	if err := repository.GetGlobalRepositories().Reminder.Create(reminder); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "create_failed", "could not create reminder")
	}
	return c.Status(fiber.StatusCreated).JSON(reminder)
}

// HandleReminderUpdate updates an owned reminder.
func HandleReminderUpdate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "reminder id must be numeric")
	}

	reminderRepo := repository.GetGlobalRepositories().Reminder
	reminder, err := reminderRepo.GetByIDForUser(uint(id), userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "reminder does not exist")
		}
		return jsonError(c, fiber.StatusInternalServerError, "update_failed", "could not load reminder")
	}

	var req reminderRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "malformed JSON body")
	}
	updated, err := reminderFromRequest(&req)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	reminder.ReminderText = updated.ReminderText
	reminder.ScheduledAt = updated.ScheduledAt
	reminder.Recurrence = updated.Recurrence
	reminder.RecurrenceDay = updated.RecurrenceDay
	reminder.RecurrenceTime = updated.RecurrenceTime

	if err := reminderRepo.Update(reminder); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "update_failed", "could not save reminder")
	}
	return c.JSON(reminder)
}

// HandleReminderComplete marks an owned reminder completed.
func HandleReminderComplete(c *fiber.Ctx) error {
	return setReminderStatus(c, models.ReminderStatusCompleted)
}

// HandleReminderCancel marks an owned reminder cancelled.
func HandleReminderCancel(c *fiber.Ctx) error {
	return setReminderStatus(c, models.ReminderStatusCancelled)
}

// HandleReminderDelete removes an owned reminder.
func HandleReminderDelete(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "reminder id must be numeric")
	}

	reminderRepo := repository.GetGlobalRepositories().Reminder
	reminder, err := reminderRepo.GetByIDForUser(uint(id), userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "reminder does not exist")
		}
		return jsonError(c, fiber.StatusInternalServerError, "delete_failed", "could not load reminder")
	}

	if err := reminderRepo.Delete(reminder.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "delete_failed", "could not delete reminder")
	}
	return c.JSON(fiber.Map{"ok": true})
}

func setReminderStatus(c *fiber.Ctx, status string) error {
	userCtx := usercontext.GetUserContext(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "reminder id must be numeric")
	}

	reminderRepo := repository.GetGlobalRepositories().Reminder
	reminder, err := reminderRepo.GetByIDForUser(uint(id), userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "reminder does not exist")
		}
		return jsonError(c, fiber.StatusInternalServerError, "update_failed", "could not load reminder")
	}

	reminder.Status = status
	if err := reminderRepo.Update(reminder); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "update_failed", "could not save reminder")
	}
	return c.JSON(reminder)
}

func reminderFromRequest(req *reminderRequest) (*models.Reminder, error) {
	text := strings.TrimSpace(req.ReminderText)
	if text == "" {
		return nil, errors.New("reminder_text is required")
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, errors.New("scheduled_at must be RFC3339")
	}

	recurrence := strings.ToUpper(strings.TrimSpace(req.Recurrence))
	if recurrence == "" {
		recurrence = models.RecurrenceNone
	}
	switch recurrence {
	case models.RecurrenceNone, models.RecurrenceDaily, models.RecurrenceWeekly,
		models.RecurrenceMonthly, models.RecurrenceYearly:
	default:
		return nil, errors.New("recurrence must be NONE, DAILY, WEEKLY, MONTHLY or YEARLY")
	}

	return &models.Reminder{
		ReminderText:   text,
		ScheduledAt:    scheduledAt,
		Status:         models.ReminderStatusPending,
		Recurrence:     recurrence,
		RecurrenceDay:  req.RecurrenceDay,
		RecurrenceTime: req.RecurrenceTime,
	}, nil
}
