package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"movietix/app/controllers"
	"movietix/internal/pkg/cache"
	"movietix/internal/pkg/env"
	"movietix/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	controllers.InitializeBookingController()

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Storage:    newRateLimitStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "movietix api",
		})
	})

	v1 := api.Group("/v1")

	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/signin", controllers.HandleSignin)

	movies := v1.Group("/movies")
	movies.Get("/", controllers.HandleListMovies)
	movies.Get("/:id", controllers.HandleGetMovie)
	movies.Post("/", middleware.JWTAuthMiddleware(), middleware.RequireAdmin, controllers.HandleCreateMovie)
	movies.Patch("/:id", middleware.JWTAuthMiddleware(), middleware.RequireAdmin, controllers.HandleUpdateMovie)
	movies.Delete("/:id", middleware.JWTAuthMiddleware(), middleware.RequireAdmin, controllers.HandleDeleteMovie)

	bookings := v1.Group("/bookings")
	// The webhook endpoint must stay outside the auth middleware: the payment
	// provider authenticates with its signature header, not a bearer token.
	bookings.Post("/webhook", controllers.HandleStripeWebhook)
	bookings.Post("/create-checkout-session", middleware.JWTAuthMiddleware(), controllers.HandleCreateCheckoutSession)
	bookings.Get("/my-bookings", middleware.JWTAuthMiddleware(), controllers.HandleMyBookings)

	sync := v1.Group("/sync", middleware.JWTAuthMiddleware())
	sync.Get("/:kind", controllers.HandleGetClientState)
	sync.Put("/:kind", controllers.HandlePutClientState)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

// newRateLimitStorage backs the limiter with Redis database 1
// (cache uses database 0).
func newRateLimitStorage() *redisstorage.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
