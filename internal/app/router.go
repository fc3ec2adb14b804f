package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"haul/internal/handler"
	"haul/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	SessionHandler      *handler.SessionHandler
	LoadHandler         *handler.LoadHandler
	ApplicationHandler  *handler.ApplicationHandler
	JourneyHandler      *handler.JourneyHandler
	DeviceHandler       *handler.DeviceHandler
	ConversationHandler *handler.ConversationHandler
	ProfileHandler      *handler.ProfileHandler
	AlertHandler        *handler.AlertHandler
	Sessions            middleware.SessionChecker
	ReplayStore         middleware.ReplayStore
	NewRelicApp         *newrelic.Application
}

// NewRouter creates a new Gin router for the local control API.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.ReplayStore))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		// Routes usable while signed out.
		session := v1.Group("/session")
		{
			session.GET("", deps.SessionHandler.GetSession)
			session.POST("/login", deps.SessionHandler.Login)
			session.POST("/register", deps.SessionHandler.Register)
			session.POST("/logout", deps.SessionHandler.Logout)
		}

		v1.GET("/language", deps.ProfileHandler.GetLanguage)
		v1.PUT("/language", deps.ProfileHandler.SetLanguage)

		v1.GET("/alerts", deps.AlertHandler.ListAlerts)
		v1.DELETE("/alerts/:id", deps.AlertHandler.DismissAlert)

		// Device reports arrive regardless of the session.
		device := v1.Group("/device")
		{
			device.GET("", deps.DeviceHandler.GetDevice)
			device.POST("/position", deps.DeviceHandler.PushPosition)
			device.PUT("/permissions", deps.DeviceHandler.SetPermissions)
		}

		authed := v1.Group("")
		authed.Use(middleware.RequireSession(deps.Sessions))
		{
			authed.PUT("/session/profile", deps.SessionHandler.UpdateProfile)

			loads := authed.Group("/loads")
			{
				loads.GET("", deps.LoadHandler.ListLoads)
				loads.POST("/refresh", deps.LoadHandler.Refresh)
				loads.POST("/more", deps.LoadHandler.LoadMore)
				loads.PUT("/search", deps.LoadHandler.SetSearch)
				loads.PUT("/filters", deps.LoadHandler.SetFilters)
				loads.DELETE("/filters", deps.LoadHandler.ClearFilters)
				loads.GET("/:id", deps.LoadHandler.GetLoad)
				loads.POST("/:id/apply", deps.LoadHandler.Apply)
			}

			applications := authed.Group("/applications")
			{
				applications.GET("", deps.ApplicationHandler.ListMine)
				applications.GET("/accepted", deps.ApplicationHandler.ListAccepted)
				applications.GET("/history", deps.ApplicationHandler.History)
			}

			journey := authed.Group("/journey")
			{
				journey.GET("", deps.JourneyHandler.Current)
				journey.POST("/open", deps.JourneyHandler.Open)
				journey.POST("/start", deps.JourneyHandler.Start)
				journey.POST("/stop", deps.JourneyHandler.Stop)
				journey.DELETE("", deps.JourneyHandler.Close)
			}

			conversations := authed.Group("/conversations/:userId")
			{
				conversations.POST("", deps.ConversationHandler.Open)
				conversations.GET("", deps.ConversationHandler.Messages)
				conversations.PUT("/draft", deps.ConversationHandler.SetDraft)
				conversations.POST("/send", deps.ConversationHandler.Send)
				conversations.DELETE("", deps.ConversationHandler.Close)
			}

			authed.GET("/reviews", deps.ProfileHandler.GetRatings)

			verification := authed.Group("/verification")
			{
				verification.GET("", deps.ProfileHandler.GetVerification)
				verification.PUT("/documents/:type", deps.ProfileHandler.AddDocument)
				verification.DELETE("/documents/:type", deps.ProfileHandler.RemoveDocument)
				verification.POST("/submit", deps.ProfileHandler.SubmitVerification)
			}
		}
	}

	return router
}
