package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/recuerdame/webapp/app/controllers"
	"github.com/recuerdame/webapp/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Recuérdame API",
		})
	})

	v1 := api.Group("/v1")

	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleAuthRegister)
	auth.Get("/activate", controllers.HandleAuthActivate)
	auth.Post("/login", controllers.HandleAuthLogin)
	auth.Post("/logout", controllers.HandleAuthLogout)

	me := v1.Group("/me", middleware.RequireAuth)
	me.Get("/", controllers.HandleUserMe)
	me.Patch("/preferences", controllers.HandleUserUpdatePreferences)

	reminders := v1.Group("/reminders", middleware.RequireAuth)
	reminders.Get("/", controllers.HandleReminderList)
	reminders.Post("/", controllers.HandleReminderCreate)
	reminders.Put("/:id", controllers.HandleReminderUpdate)
	reminders.Post("/:id/complete", controllers.HandleReminderComplete)
	reminders.Post("/:id/cancel", controllers.HandleReminderCancel)
	reminders.Delete("/:id", controllers.HandleReminderDelete)

	contacts := v1.Group("/contacts", middleware.RequireAuth)
	contacts.Get("/", controllers.HandleContactList)
	contacts.Post("/", controllers.HandleContactCreate)
	contacts.Put("/:id", controllers.HandleContactUpdate)
	contacts.Delete("/:id", controllers.HandleContactDelete)

	connections := v1.Group("/connections", middleware.RequireAuth)
	connections.Get("/", controllers.HandleConnectionStatus)
	connections.Post("/whatsapp", controllers.HandleLinkWhatsApp)
	connections.Delete("/whatsapp", controllers.HandleUnlinkWhatsApp)
	connections.Delete("/google", controllers.HandleDisconnectGoogle)

	v1.Get("/plans", controllers.HandlePlanList)
	subscription := v1.Group("/subscription", middleware.RequireAuth)
	subscription.Get("/", controllers.HandleSubscriptionGet)
	subscription.Post("/checkout", controllers.HandleSubscriptionCheckout)
	subscription.Post("/cancel", controllers.HandleSubscriptionCancel)

	admin := v1.Group("/admin", middleware.RequireAdmin)
	admin.Get("/users", controllers.HandleAdminUserList)
	admin.Delete("/users/:id", controllers.HandleAdminUserDelete)
	admin.Post("/users/:id/plan", controllers.HandleAdminAssignPlan)
	admin.Get("/users/:id/emails", controllers.HandleAdminUserEmails)
	admin.Get("/commits", controllers.HandleAdminCommitList)
	admin.Get("/commits/filters", controllers.HandleAdminCommitFilters)
	admin.Get("/plans", controllers.HandleAdminPlanList)
	admin.Post("/plans", controllers.HandleAdminPlanCreate)
	admin.Put("/plans/:id", controllers.HandleAdminPlanUpdate)
	admin.Delete("/plans/:id", controllers.HandleAdminPlanDelete)
	admin.Get("/stats", controllers.HandleAdminStats)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
