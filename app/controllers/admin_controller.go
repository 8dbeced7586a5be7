package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/recuerdame/webapp/app/models"
	"github.com/recuerdame/webapp/app/repository"
	"github.com/recuerdame/webapp/internal/pkg/botnotify"
	"github.com/recuerdame/webapp/internal/pkg/metrics/counter"
	"github.com/recuerdame/webapp/internal/pkg/statistics"
	"github.com/recuerdame/webapp/internal/pkg/usercontext"
)

type assignPlanRequest struct {
	PlanCode     string `json:"plan_code"`
	BillingCycle string `json:"billing_cycle"`
}

type planRequest struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	PriceMonthly    int64   `json:"price_monthly"`
	PriceYearly     int64   `json:"price_yearly"`
	Currency        string  `json:"currency"`
	FeaturesJSON    string  `json:"features_json"`
	TrialDays       int     `json:"trial_days"`
	SortOrder       int     `json:"sort_order"`
	IsActive        *bool   `json:"is_active"`
	MpPlanIDMonthly *string `json:"mp_plan_id_monthly,omitempty"`
	MpPlanIDYearly  *string `json:"mp_plan_id_yearly,omitempty"`
}

// HandleAdminUserList lists users with reminder counts; ?q= searches.
func HandleAdminUserList(c *fiber.Ctx) error {
	userRepo := repository.GetGlobalRepositories().User

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		users, err := userRepo.SearchWithStats(q)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not search users")
		}
		return c.JSON(fiber.Map{"users": adminUserRows(users)})
	}

	offset, limit := parsePagination(c, 25, 100)
	users, err := userRepo.GetWithStats(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not load users")
	}
	total, _ := userRepo.Count()
	return c.JSON(fiber.Map{"users": adminUserRows(users), "total": total})
}

func adminUserRows(users []repository.UserWithStats) []fiber.Map {
	rows := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		rows = append(rows, fiber.Map{
			"id":             u.User.ID,
			"public_id":      u.User.PublicID,
			"name":           u.User.Name,
			"email":          u.User.Email,
			"role":           u.User.Role,
			"status":         u.User.Status,
			"chat_linked":    u.User.HasChatLinked(),
			"reminder_count": u.ReminderCount,
			"created_at":     u.User.CreatedAt,
		})
	}
	return rows
}

// HandleAdminUserDelete hard-deletes a user and their owned rows.
func HandleAdminUserDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "user id must be numeric")
	}
	if uint(id) == usercontext.GetUserID(c) {
		return jsonError(c, fiber.StatusConflict, "self_delete", "admins cannot delete their own account")
	}

	if err := repository.GetGlobalRepositories().User.Delete(uint(id)); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "delete_failed", "could not delete user")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleAdminAssignPlan gives a user an ACTIVE subscription without going
// through checkout (support/comp accounts). The bot is told, best-effort.
func HandleAdminAssignPlan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "user id must be numeric")
	}

	var req assignPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "malformed JSON body")
	}
	cycle := strings.ToUpper(strings.TrimSpace(req.BillingCycle))
	if cycle == "" {
		cycle = models.BillingCycleMonthly
	}
	if cycle != models.BillingCycleMonthly && cycle != models.BillingCycleYearly {
		return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_cycle", "billing_cycle must be MONTHLY or YEARLY")
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByID(uint(id))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "user_not_found", "user does not exist")
	}
	plan, err := repos.Plan.GetByCode(strings.TrimSpace(req.PlanCode))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "unknown_plan", "plan does not exist")
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)
	if cycle == models.BillingCycleYearly {
		periodEnd = now.AddDate(1, 0, 0)
	}

	wasActive := false
	sub, err := repos.Subscription.GetByUserID(user.ID)
	switch {
	case err == nil:
		wasActive = sub.Status == models.SubscriptionStatusActive
		sub.PlanID = plan.ID
		sub.Status = models.SubscriptionStatusActive
		sub.BillingCycle = cycle
		sub.CurrentPeriodStart = &now
		sub.CurrentPeriodEnd = &periodEnd
		sub.CancelledAt = nil
		if err := repos.Subscription.Update(sub); err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "assign_failed", "could not update subscription")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = &models.Subscription{
			UserID:             user.ID,
			PlanID:             plan.ID,
			Status:             models.SubscriptionStatusActive,
			BillingCycle:       cycle,
			CurrentPeriodStart: &now,
			CurrentPeriodEnd:   &periodEnd,
		}
		if err := repos.Subscription.Create(sub); err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "assign_failed", "could not create subscription")
		}
	default:
		return jsonError(c, fiber.StatusInternalServerError, "assign_failed", "could not load subscription")
	}

	if !wasActive {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		botnotify.NewNotifierFromEnv().NotifySubscriptionActivated(ctx, user.PublicID)
	}

	return c.JSON(fiber.Map{"ok": true, "status": sub.Status, "plan": plan.Code})
}

// HandleAdminPlanList returns every plan, inactive ones included.
func HandleAdminPlanList(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalRepositories().Plan.GetAll()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not load plans")
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleAdminPlanCreate creates a plan.
func HandleAdminPlanCreate(c *fiber.Ctx) error {
	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "malformed JSON body")
	}
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Name) == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "code and name are required")
	}

	plan := &models.Plan{
		Code:            strings.TrimSpace(req.Code),
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		PriceMonthly:    req.PriceMonthly,
		PriceYearly:     req.PriceYearly,
		Currency:        firstNonEmpty(strings.ToUpper(strings.TrimSpace(req.Currency)), "ARS"),
		FeaturesJSON:    req.FeaturesJSON,
		TrialDays:       req.TrialDays,
		SortOrder:       req.SortOrder,
		IsActive:        req.IsActive == nil || *req.IsActive,
		MpPlanIDMonthly: req.MpPlanIDMonthly,
		MpPlanIDYearly:  req.MpPlanIDYearly,
	}
	if err := repository.GetGlobalRepositories().Plan.Create(plan); err != nil {
		return jsonError(c, fiber.StatusConflict, "create_failed", "plan code or provider plan id already in use")
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// HandleAdminPlanUpdate edits a plan.
func HandleAdminPlanUpdate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "plan id must be numeric")
	}

	planRepo := repository.GetGlobalRepositories().Plan
	plan, err := planRepo.GetByID(uint(id))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "plan does not exist")
	}

	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "malformed JSON body")
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		plan.Name = name
	}
	plan.Description = req.Description
	plan.PriceMonthly = req.PriceMonthly
	plan.PriceYearly = req.PriceYearly
	if cur := strings.ToUpper(strings.TrimSpace(req.Currency)); cur != "" {
		plan.Currency = cur
	}
	plan.FeaturesJSON = req.FeaturesJSON
	plan.TrialDays = req.TrialDays
	plan.SortOrder = req.SortOrder
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	plan.MpPlanIDMonthly = req.MpPlanIDMonthly
	plan.MpPlanIDYearly = req.MpPlanIDYearly

	if err := planRepo.Update(plan); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "update_failed", "could not save plan")
	}
	return c.JSON(plan)
}

// HandleAdminPlanDelete removes a plan.
func HandleAdminPlanDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "plan id must be numeric")
	}
	if err := repository.GetGlobalRepositories().Plan.Delete(uint(id)); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "delete_failed", "could not delete plan")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleAdminCommitList browses the deploy log pushed by the CI webhook.
// ?q= searches message/author/sha; ?repository= and ?branch= filter exactly.
func HandleAdminCommitList(c *fiber.Ctx) error {
	offset, limit := parsePagination(c, 20, 100)
	filter := repository.CommitFilter{
		Query:      strings.TrimSpace(c.Query("q")),
		Repository: strings.TrimSpace(c.Query("repository")),
		Branch:     strings.TrimSpace(c.Query("branch")),
	}

	commits, total, err := repository.GetGlobalRepositories().Commit.List(filter, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not load commits")
	}
	return c.JSON(fiber.Map{"commits": commits, "total": total})
}

// HandleAdminCommitFilters returns the distinct repositories and branches in
// the deploy log.
func HandleAdminCommitFilters(c *fiber.Ctx) error {
	repositories, branches, err := repository.GetGlobalRepositories().Commit.FilterOptions()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not load filter options")
	}
	return c.JSON(fiber.Map{"repositories": repositories, "branches": branches})
}

// HandleAdminUserEmails browses one user's Gmail ingestion log. The rows are
// written by the bot service; this view is read-only support tooling.
func HandleAdminUserEmails(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "user id must be numeric")
	}
	if _, err := repository.GetGlobalRepositories().User.GetByID(uint(id)); err != nil {
		return jsonError(c, fiber.StatusNotFound, "user_not_found", "user does not exist")
	}

	offset, limit := parsePagination(c, 20, 100)
	emails, total, err := repository.GetGlobalRepositories().ProcessedEmail.
		ListByUser(uint(id), strings.TrimSpace(c.Query("q")), offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "list_failed", "could not load emails")
	}
	return c.JSON(fiber.Map{"emails": emails, "total": total})
}

// HandleAdminStats returns the back-office dashboard counters. User and
// reminder totals come from the statistics cache; subscription counts are
// cheap enough to read live.
func HandleAdminStats(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	dashboard := statistics.GetDashboardData()

	active, _ := repos.Subscription.CountByStatus(models.SubscriptionStatusActive)
	trialing, _ := repos.Subscription.CountByStatus(models.SubscriptionStatusTrialing)
	pastDue, _ := repos.Subscription.CountByStatus(models.SubscriptionStatusPastDue)

	return c.JSON(fiber.Map{
		"users":           dashboard.TotalUsers,
		"reminders":       dashboard.TotalReminders,
		"reminders_today": dashboard.TodayReminders,
		"subscriptions": fiber.Map{
			"active":   active,
			"trialing": trialing,
			"past_due": pastDue,
		},
		"webhooks": counter.WebhookOutcomes(),
	})
}
