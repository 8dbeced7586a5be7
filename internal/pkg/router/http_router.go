package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/recuerdame/webapp/app/controllers"
	"github.com/recuerdame/webapp/internal/pkg/middleware"
	"github.com/recuerdame/webapp/internal/pkg/oauth"
	"github.com/recuerdame/webapp/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerWebhookRoutes(app)
	h.registerOAuthRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

// registerWebhookRoutes wires the provider-facing endpoints. They sit outside
// the /api group: no session, no rate limiter (the provider bursts retries),
// authentication is the webhook signature itself.
func (h HttpRouter) registerWebhookRoutes(app *fiber.App) {
	app.Get("/webhooks/mercadopago", controllers.HandleMercadoPagoChallenge)
	app.Post("/webhooks/mercadopago", controllers.HandleMercadoPagoWebhook)
}

// registerOAuthRoutes wires the Google connector flow. Goth owns /auth/*.
func (h HttpRouter) registerOAuthRoutes(app *fiber.App) {
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
}
