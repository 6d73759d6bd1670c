package http

import (
	"time"

	"github.com/geocoder89/placeshub/internal/http/handlers"
	"github.com/geocoder89/placeshub/internal/http/middlewares"
	"github.com/geocoder89/placeshub/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "placeshub"

// Deps are the collaborators the HTTP layer is wired against. main builds them
// from config; tests hand in memory backed ones.
type Deps struct {
	Env string

	Credentials handlers.CredentialStore
	Sessions    SessionService
	Audit       handlers.TransactionQuerier
	Actions     handlers.ActionLister
	Places      handlers.PlacesSearcher
	Prom        *observability.Prom

	// Pings feed /readyz, keyed by dependency name.
	Pings        map[string]handlers.PingFunc
	ShuttingDown func() bool

	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	StoreTimeout       time.Duration
}

// SessionService is what both the auth handler and the request gate need.
type SessionService interface {
	handlers.SessionIssuer
	middlewares.SessionValidator
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	if len(deps.CORSAllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(deps.CORSAllowedOrigins))
	}
	if deps.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(deps.MaxBodyBytes))
	}
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(deps.Pings, deps.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	// Wire up handlers
	authHandler := handlers.NewAuthHandler(deps.Credentials, deps.Sessions, deps.Audit, deps.StoreTimeout)
	transactionsHandler := handlers.NewTransactionsHandler(deps.Audit, deps.StoreTimeout)
	actionsHandler := handlers.NewActionsHandler(deps.Actions, deps.StoreTimeout)
	placesHandler := handlers.NewPlacesHandler(deps.Places, deps.Audit, deps.StoreTimeout)

	gate := middlewares.NewAuthMiddleware(deps.Sessions, deps.StoreTimeout)

	api := r.Group("/api")

	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(gate.RequireSession())

	protected.POST("/logout", authHandler.Logout)
	protected.GET("/transactions", transactionsHandler.ListTransactions)
	protected.GET("/actions", actionsHandler.ListActions)
	protected.GET("/restaurants-nearby", placesHandler.NearbyRestaurants)

	return r
}
