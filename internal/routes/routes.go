package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/auth"
	"github.com/rezervi/rezervi-api/internal/cache"
	"github.com/rezervi/rezervi-api/internal/handlers"
	"github.com/rezervi/rezervi-api/internal/middleware"
	"github.com/rezervi/rezervi-api/internal/models"
)

type Handlers struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Public       *handlers.PublicHandler
	Reservations *handlers.ReservationHandler
	Business     *handlers.BusinessHandler
}

type Options struct {
	Issuer      *auth.Issuer
	Counter     cache.Counter
	CORSOrigins []string

	// BookingRateLimit is requests per minute per client IP; zero disables it.
	BookingRateLimit int

	Log *zap.Logger
}

func RegisterRoutes(r *gin.Engine, h Handlers, opts Options) {

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(
		middleware.Recovery(opts.Log),
		middleware.RequestLogger(opts.Log),
		middleware.CORS(opts.CORSOrigins),
	)

	// ======================================================
	// OPERATIONAL
	// ======================================================
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	bookingLimit := middleware.RateLimit(opts.Counter, "booking", opts.BookingRateLimit, time.Minute, opts.Log)

	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		api.GET("/businesses", h.Public.Search)
		api.GET("/businesses/:id", h.Public.Get)
		api.GET("/businesses/:id/availability", h.Public.Availability)
		api.POST("/businesses/:id/bookings",
			bookingLimit,
			middleware.OptionalAuth(opts.Issuer),
			h.Public.Book,
		)

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)

		// ------------------------------
		// AUTHENTICATED
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.Auth(opts.Issuer))
		{
			secured.GET("/reservations/:id", h.Reservations.Get)
			secured.PUT("/reservations/:id", h.Reservations.UpdateStatus)
			secured.POST("/reservations/:id/reschedule", h.Reservations.Reschedule)

			secured.GET("/me/bookings", h.Reservations.MyBookings)
		}

		// ------------------------------
		// OWNER
		// ------------------------------
		owner := api.Group("/me")
		owner.Use(middleware.Auth(opts.Issuer), middleware.RequireRole(models.RoleOwner))
		{
			owner.GET("/business", h.Business.Get)
			owner.PATCH("/business", h.Business.Update)

			owner.GET("/working-hours", h.Business.GetWorkingHours)
			owner.PUT("/working-hours", h.Business.ReplaceWorkingHours)

			owner.GET("/special-dates", h.Business.GetSpecialDates)
			owner.PUT("/special-dates", h.Business.ReplaceSpecialDates)

			owner.GET("/reservations", h.Reservations.ListByDate)
			owner.GET("/reservations/month", h.Reservations.ListByMonth)

			owner.GET("/audit-logs", h.Business.AuditLogs)
		}
	}
}
