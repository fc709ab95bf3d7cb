package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/tradejournal/brokergate/internal/api"
	"github.com/tradejournal/brokergate/internal/backend"
	"github.com/tradejournal/brokergate/internal/config"
	"github.com/tradejournal/brokergate/internal/db"
	"github.com/tradejournal/brokergate/internal/registry"
	"github.com/tradejournal/brokergate/internal/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize the broker catalog and the upstream backend client
	reg := registry.New()
	backendClient := backend.NewClient(cfg.Backend.URL, cfg.Backend.HealthTimeout)

	// Initialize Redis client (optional, backs the last-value quote cache)
	redisClient, err := db.ConnectRedis(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis, quote cache disabled: %v", err)
		redisClient = nil
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Initialize router
	router := api.SetupRouter(reg, backendClient, redisClient, wsHub, cfg)
	if os.Getenv("DEBUG_ROUTES") != "" {
		api.LogRoutes(router)
	}

	// Set up CORS
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Allow all origins for API access
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Apply CORS middleware
	handler := corsMiddleware.Handler(router)

	// Start the server
	log.Printf("Server starting on port %s", cfg.Server.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Server.Port, handler))
}
