package api

import (
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"github.com/tradejournal/brokergate/internal/backend"
	"github.com/tradejournal/brokergate/internal/brokerlock"
	"github.com/tradejournal/brokergate/internal/config"
	"github.com/tradejournal/brokergate/internal/handlers"
	"github.com/tradejournal/brokergate/internal/middleware"
	"github.com/tradejournal/brokergate/internal/registry"
	"github.com/tradejournal/brokergate/internal/services"
	"github.com/tradejournal/brokergate/internal/websocket"
)

// SetupRouter configures all routes and returns the router
func SetupRouter(
	reg *registry.Registry,
	backendClient *backend.Client,
	redisClient *redis.Client,
	wsHub *websocket.Hub,
	cfg *config.Config,
) *mux.Router {
	// Create a new router
	router := mux.NewRouter()

	// Add health check endpoint
	router.HandleFunc("/api/health", NewHealthHandler(backendClient)).Methods("GET")

	// WebSocket route for quote fan-out
	router.HandleFunc("/ws", wsHub.HandleWebSocket)

	// Create services. The broker lock set serializes connect, disconnect,
	// and stream-start per broker ID.
	locks := brokerlock.NewSet()
	credentialService := services.NewCredentialService(reg)
	quoteCache := services.NewQuoteCache(redisClient)
	streamService := services.NewStreamService(
		reg,
		credentialService,
		backendClient,
		cfg.Stream.LiveDataURL,
		cfg.Stream.ReconnectAttempts,
		wsHub.BroadcastStreamError,
		locks,
	)
	connectionService := services.NewConnectionService(reg, credentialService, backendClient, streamService, locks)
	orderService := services.NewOrderService(reg, connectionService, backendClient)
	authService := services.NewAuthService()

	// Create handlers using services
	authHandler := handlers.NewAuthHandler(authService, cfg.JWT.SecretKey)
	brokerHandler := handlers.NewBrokerHandler(reg, credentialService)
	connectionHandler := handlers.NewConnectionHandler(connectionService)
	streamHandler := handlers.NewStreamHandler(streamService, quoteCache, wsHub)
	orderHandler := handlers.NewOrderHandler(orderService)

	// Add public endpoints directly to the root router (no authentication required)
	router.HandleFunc("/api/login", authHandler.Login).Methods("POST")

	// Create the API router for authenticated endpoints
	apiRouter := router.PathPrefix("/api").Subrouter()

	// Create a subrouter for authenticated endpoints
	authRouter := apiRouter.PathPrefix("").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg.JWT.SecretKey))

	// Register routes
	brokerHandler.RegisterRoutes(authRouter)
	connectionHandler.RegisterRoutes(authRouter)
	streamHandler.RegisterRoutes(authRouter)
	orderHandler.RegisterRoutes(authRouter)

	return router
}
