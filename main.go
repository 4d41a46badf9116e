package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"pinboard/handlers"
	"pinboard/middleware"
	"pinboard/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is not set")
	}
	dbName := os.Getenv("MONGODB_DB")
	if dbName == "" {
		dbName = "pinboard"
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is not set")
	}

	// Redis
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Fatal("REDIS_ADDR environment variable is not set")
	}
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		var err error
		redisDB, err = strconv.Atoi(redisDBStr)
		if err != nil {
			log.Fatalf("Invalid REDIS_DB value: %v", err)
		}
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   redisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Initialize services and handlers
	pinService := services.NewPinService(mongoURI, dbName, redisClient)
	pinHandler := handlers.NewPinHandler(pinService)

	suggestService := services.NewSuggestService(openaiKey)
	suggestHandler := handlers.NewSuggestHandler(suggestService)

	authService := services.NewAuthService(mongoURI, dbName, redisClient, jwtSecret)
	authHandler := handlers.NewAuthHandler(authService)

	r := mux.NewRouter()

	// CORS middleware
	allowedOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	r.Use(middleware.CORSMiddleware(allowedOrigins))
	r.Use(middleware.ErrorMiddleware())

	// Auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Session routes
	sessionRouter := r.PathPrefix("/auth").Subrouter()
	sessionRouter.Use(middleware.JWTMiddleware(jwtSecret))
	sessionRouter.HandleFunc("/logout", authHandler.Logout).Methods("POST", "OPTIONS")
	sessionRouter.HandleFunc("/me", authHandler.Me).Methods("GET", "OPTIONS")

	// Pin routes
	r.HandleFunc("/pins", pinHandler.ListPins).Methods("GET", "OPTIONS")
	r.HandleFunc("/pins", pinHandler.CreatePin).Methods("POST")
	r.HandleFunc("/pins", pinHandler.DeletePin).Methods("DELETE")

	// Suggestion route
	r.HandleFunc("/suggest", suggestHandler.SuggestDescription).Methods("POST", "OPTIONS")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("Server starting on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
