package router // package router wires handlers and middleware onto echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/aizah-price-admin/internal/config"
	"github.com/iliyamo/aizah-price-admin/internal/handler"
	"github.com/iliyamo/aizah-price-admin/internal/metrics"
	"github.com/iliyamo/aizah-price-admin/internal/middleware"
	"github.com/iliyamo/aizah-price-admin/internal/session"
)

// Deps are the components routes are registered with.  Redis may be nil,
// which turns the rate limiter and the response cache into pass-through.
type Deps struct {
	PriceForm *handler.PriceFormHandler
	Users     *handler.UserHandler
	Sessions  *session.Store
	Signer    session.Signer
	Redis     *redis.Client
	Config    config.Config
}

// RegisterRoutes registers the health check and metrics endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterPriceForm registers the price editor page and its JSON API.  Both
// run behind the session middleware; the rate limiter sits after it so the
// session id is available for the bucket key.
func RegisterPriceForm(e *echo.Echo, d Deps) {
	sess := middleware.Session(d.Sessions, d.Signer, middleware.SessionOptions{
		CookieName: d.Config.SessionCookie,
		Secure:     d.Config.Env == "prod",
		Logger:     d.PriceForm.Logger,
	})
	limit := middleware.RateLimit(d.Config.RateLimit, d.Redis, d.PriceForm.Logger)

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/prices")
	})

	pages := e.Group("/prices", sess, limit)
	pages.GET("", d.PriceForm.Page)
	pages.POST("", d.PriceForm.Submit)
	pages.POST("/select", d.PriceForm.Select)
	pages.GET("/export.xlsx", d.PriceForm.Export)

	api := e.Group("/v1/price-form", sess, limit)
	api.GET("", d.PriceForm.GetState)
	api.POST("/select", d.PriceForm.SelectRoom)
	api.PUT("/months/:month", d.PriceForm.SetMonth)
	api.POST("/submit", d.PriceForm.SubmitJSON)
}

// RegisterListings registers the read-only listings.  They carry no
// session state, so responses are cached in Redis.
func RegisterListings(e *echo.Echo, d Deps) {
	cache := middleware.ResponseCache(d.Config.Cache, d.Redis, d.Users.Logger)

	e.GET("/users", d.Users.Page)

	v1 := e.Group("/v1", cache)
	v1.GET("/rooms", d.PriceForm.ListRooms)
	v1.GET("/users", d.Users.List)
	v1.GET("/users/:id", d.Users.Get)
}
