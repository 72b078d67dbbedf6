package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/student-housing/internal/allocation" // Room allocation engine
	"github.com/iliyamo/student-housing/internal/config"     // Internal config loader
	"github.com/iliyamo/student-housing/internal/database"   // MySQL pool
	"github.com/iliyamo/student-housing/internal/handler"    // HTTP handlers
	"github.com/iliyamo/student-housing/internal/middleware" // Rate limiting and response cache
	"github.com/iliyamo/student-housing/internal/queue"      // Notification consumer
	"github.com/iliyamo/student-housing/internal/repository" // Data access layer
	"github.com/iliyamo/student-housing/internal/router"     // Internal router setup
	queue_publisher "github.com/iliyamo/student-housing/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis powers rate limiting and the browse response cache.  A nil
	// client disables both and the API keeps working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	properties := repository.NewPropertyRepo(db)
	occupants := repository.NewOccupantRepo(db)
	conversations := repository.NewConversationRepo(db)
	reviews := repository.NewReviewRepo(db)
	notifications := repository.NewNotificationRepo(db)

	policy := allocation.Policy{
		FairDistribution: cfg.FairDistribution,
		SharedRoomCap:    uint32(cfg.SharedRoomCap),
	}
	engine := allocation.NewEngine(
		repository.NewAllocationStore(db, properties, occupants),
		repository.NewUserDirectory(users),
		queue_publisher.BrokerSink{},
		policy,
	)

	// The consumer turns tenant-left events into notification rows and
	// log lines.  It reconnects on its own; run it for the process lifetime.
	go func() {
		if err := queue.StartNotificationConsumer(notifications); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(properties, occupants, reviews))
	router.RegisterLandlord(e,
		handler.NewLandlordHandler(properties, occupants),
		handler.NewAllocationHandler(engine),
		cfg.JWTSecret)
	router.RegisterStudent(e,
		handler.NewMessagingHandler(conversations),
		handler.NewReviewHandler(properties, occupants, reviews),
		handler.NewNotificationHandler(notifications),
		cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
