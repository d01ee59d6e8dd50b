package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sipReelAPI/handlers"
	"sipReelAPI/internal/notification"
	"sipReelAPI/internal/workers"
	"sipReelAPI/middleware"
	"sipReelAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	notificationService *services.NotificationService
	fanoutQueue         *workers.FanoutQueue
	userService         *services.UserService
	activityService     *services.ActivityService
	feedService         *services.FeedService
	interactionService  *services.InteractionService
	catalogService      *services.CatalogService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to Postgres")

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool, notificationService, nil)
	fanoutQueue = workers.NewFanoutQueue(userService)
	userService.SetFanoutQueue(fanoutQueue)
	activityService = services.NewActivityService(dbPool)
	feedService = services.NewFeedService(dbPool)
	interactionService = services.NewInteractionService(dbPool, notificationService)
	catalogService = services.NewCatalogService(dbPool)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService, feedService)
	activityHandler := handlers.NewActivityHandler(activityService)
	feedHandler := handlers.NewFeedHandler(feedService)
	interactionHandler := handlers.NewInteractionHandler(interactionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "sipReel-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/users/me", userHandler.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/users/me", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/users/me/followers", userHandler.GetFollowers).Methods("GET")
	protected.HandleFunc("/users/me/following", userHandler.GetFollowing).Methods("GET")
	protected.HandleFunc("/users/me/weeks", userHandler.GetWeeklyHistory).Methods("GET")
	protected.HandleFunc("/users/search", userHandler.SearchUsers).Methods("GET")
	protected.HandleFunc("/users/{id}", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/users/{id}/follow", userHandler.Follow).Methods("POST")
	protected.HandleFunc("/users/{id}/follow", userHandler.Unfollow).Methods("DELETE")
	protected.HandleFunc("/users/{id}/posts", userHandler.GetUserPosts).Methods("GET")

	protected.HandleFunc("/activities", activityHandler.AddActivity).Methods("POST")
	protected.HandleFunc("/activities", activityHandler.ListActivities).Methods("GET")
	protected.HandleFunc("/activities/{id}/republish", activityHandler.RepublishActivity).Methods("POST")

	protected.HandleFunc("/feed", feedHandler.GetFeed).Methods("GET")
	protected.HandleFunc("/posts/{id}", feedHandler.GetPost).Methods("GET")
	protected.HandleFunc("/posts/{id}/like", interactionHandler.LikePost).Methods("POST")
	protected.HandleFunc("/posts/{id}/like", interactionHandler.UnlikePost).Methods("DELETE")
	protected.HandleFunc("/posts/{id}/comments", interactionHandler.AddComment).Methods("POST")
	protected.HandleFunc("/posts/{id}/interactions", interactionHandler.GetInteractions).Methods("GET")
	protected.HandleFunc("/comments/{id}", interactionHandler.DeleteComment).Methods("DELETE")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods("DELETE")
	protected.HandleFunc("/devices", notificationHandler.RegisterDevice).Methods("POST")

	protected.HandleFunc("/catalog/beers", catalogHandler.SearchBeers).Methods("GET")
	protected.HandleFunc("/catalog/movies", catalogHandler.SearchMovies).Methods("GET")

	// CORS configuration
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	fanoutQueue.Stop()
	notificationService.Stop()

	log.Println("Server shutdown complete")
}
