package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/recuerdame/webapp/app/models"
	"github.com/recuerdame/webapp/app/repository"
	"github.com/recuerdame/webapp/internal/pkg/entitlements"
	"github.com/recuerdame/webapp/internal/pkg/mercadopago"
	"github.com/recuerdame/webapp/internal/pkg/usercontext"
)

type checkoutRequest struct {
	PlanCode     string `json:"plan_code"`
	BillingCycle string `json:"billing_cycle"`
}

// HandleSubscriptionGet returns the user's subscription with its plan and the
// effective entitlements (free tier when no subscription grants access).
func HandleSubscriptionGet(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	ent := entitlements.ForUser(userCtx.UserID)

	sub, err := repository.GetGlobalRepositories().Subscription.GetByUserIDWithPlan(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"subscription": nil, "entitled": false, "entitlements": ent})
		}
		return jsonError(c, fiber.StatusInternalServerError, "load_failed", "could not load subscription")
	}
	return c.JSON(fiber.Map{"subscription": sub, "entitled": sub.IsEntitled(), "entitlements": ent})
}

// HandlePlanList returns the publicly offered plans.
func HandlePlanList(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalRepositories().Plan.GetActive()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "load_failed", "could not load plans")
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleSubscriptionCheckout starts a Mercado Pago preapproval checkout and
// returns the redirect URL. The user's public id travels as
// external_reference so webhook events can be tied back to the account.
func HandleSubscriptionCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	var req checkoutRequest
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

	plan, err := repos.Plan.GetByCode(strings.TrimSpace(req.PlanCode))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "unknown_plan", "plan does not exist")
	}
	mpPlanID := plan.MpPlanIDFor(cycle)
	if mpPlanID == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "plan_not_purchasable", "plan has no payment configuration for that cycle")
	}

	if existing, err := repos.Subscription.GetByUserID(userCtx.UserID); err == nil &&
		existing.Status == models.SubscriptionStatusActive {
		return jsonError(c, fiber.StatusConflict, "already_subscribed", "subscription is already active")
	}

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "user_not_found", "user does not exist")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client := mercadopago.NewClientFromEnv()
	pre, err := client.CreatePreapproval(ctx, mercadopago.CheckoutParams{
		PreapprovalPlanID: mpPlanID,
		PayerEmail:        user.Email,
		ExternalReference: user.PublicID,
		BackURL:           checkoutBackURL(),
	})
	if err != nil {
		return jsonError(c, fiber.StatusBadGateway, "checkout_failed", "payment provider rejected the checkout")
	}

	return c.JSON(fiber.Map{
		"init_point":      pre.InitPoint,
		"subscription_id": pre.ID,
	})
}

// HandleSubscriptionCancel cancels at the provider, then locally. Cancelling
// is a one-way gate; re-subscribing goes through a fresh checkout.
func HandleSubscriptionCancel(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	sub, err := repos.Subscription.GetByUserID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "no_subscription", "there is no subscription to cancel")
		}
		return jsonError(c, fiber.StatusInternalServerError, "cancel_failed", "could not load subscription")
	}
	if sub.Status == models.SubscriptionStatusCancelled {
		return c.JSON(fiber.Map{"ok": true, "status": sub.Status})
	}

	if sub.MpSubscriptionID != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := mercadopago.NewClientFromEnv().CancelPreapproval(ctx, *sub.MpSubscriptionID); err != nil {
			return jsonError(c, fiber.StatusBadGateway, "cancel_failed", "payment provider rejected the cancellation")
		}
	}

	if err := repos.Subscription.Cancel(sub.ID, time.Now()); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "cancel_failed", "could not cancel subscription")
	}
	return c.JSON(fiber.Map{"ok": true, "status": models.SubscriptionStatusCancelled})
}

func checkoutBackURL() string {
	return strings.TrimRight(publicBaseURL(), "/") + "/subscription"
}
