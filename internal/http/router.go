package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anggiadiputra/donasiku-sub000/internal/http/handlers"
	"github.com/anggiadiputra/donasiku-sub000/internal/http/handlers/admin"
	"github.com/anggiadiputra/donasiku-sub000/internal/http/middleware"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/payments"
	"github.com/anggiadiputra/donasiku-sub000/internal/shared/apperr"
)

// Deps is everything the routes need, built in cmd/web.
type Deps struct {
	DB        *gorm.DB
	JWTSecret string

	Gateway      payments.Gateway
	Donations    handlers.DonationCreator
	Poller       handlers.StatusPoller
	Callbacks    handlers.CallbackProcessor
	AdminList    admin.Lister
	AdminRecheck admin.Reconciler
}

func NewRouter(logger *slog.Logger, d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.ErrorHandler(logger))

	health := &handlers.HealthHandler{DB: d.DB}
	r.GET("/healthz", health.Check)

	api := r.Group("/api")

	trx := handlers.NewTransactionsHandler(d.Donations, d.Poller)
	api.POST("/transactions", trx.Create)
	api.GET("/transactions/:orderId", trx.Get)

	cb := handlers.NewCallbackHandler(logger, d.Gateway, d.Callbacks)
	api.POST("/payments/callback", cb.Handle)

	adm := api.Group("/admin", middleware.RequireAdmin(d.JWTSecret))
	{
		h := admin.NewTransactionsHandler(logger, d.AdminList, d.AdminRecheck)
		adm.GET("/transactions", h.Index)
		adm.POST("/transactions/:orderId/reconcile", h.Reconcile)
	}

	r.NoRoute(func(c *gin.Context) {
		middleware.Fail(c, apperr.NotFoundErr("Endpoint tidak ditemukan"))
	})

	return r
}
