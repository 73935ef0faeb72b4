package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/ustaconnect/backend/internal/config"
	"github.com/ustaconnect/backend/internal/db"
	"github.com/ustaconnect/backend/internal/handlers"
	"github.com/ustaconnect/backend/internal/middleware"
	"github.com/ustaconnect/backend/internal/models"
	"github.com/ustaconnect/backend/internal/notify"
	"github.com/ustaconnect/backend/internal/push"
	"github.com/ustaconnect/backend/internal/realtime"
	"github.com/ustaconnect/backend/internal/scheduler"
	bidsvc "github.com/ustaconnect/backend/internal/services/bid"
	"github.com/ustaconnect/backend/internal/services/credit"
	jobsvc "github.com/ustaconnect/backend/internal/services/job"
	"github.com/ustaconnect/backend/internal/store"
)

// openStore connects the durable store, falling back to the ephemeral
// in-memory store when Postgres is unreachable.
func openStore(cfg config.Config) store.Store {
	if cfg.DBDSN != "" {
		gdb, err := db.Connect(cfg.DBDSN)
		if err == nil {
			if err := gdb.AutoMigrate(
				&models.User{},
				&models.ProviderProfile{},
				&models.JobPost{},
				&models.Bid{},
				&models.CreditAccount{},
				&models.CreditLedgerEntry{},
				&models.Review{},
				&models.Notification{},
			); err != nil {
				log.Fatal(err)
			}
			log.Println("using durable store (postgres)")
			return store.NewGormStore(gdb)
		}
		log.Printf("postgres unreachable, using fallback store: %v", err)
	} else {
		log.Println("DB_DSN not set, using fallback store")
	}

	if dir := filepath.Dir(cfg.FallbackSnapshotPath); dir != "" {
		_ = os.MkdirAll(dir, 0755)
	}
	return store.NewMemoryStore(cfg.FallbackSnapshotPath)
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	st := openStore(cfg)

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	var pushSender push.Sender = push.LogSender{}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unreachable, push delivery disabled: %v", err)
	} else {
		pushSender = push.NewRedisSender(rdb)
	}

	hub := realtime.NewHub()
	go hub.Run()

	router := notify.NewRouter(hub, pushSender, st)

	credits := credit.NewService()
	bids := bidsvc.NewService(st, credits, router)
	jobs := jobsvc.NewService(st, credits, router)

	sched := scheduler.New(jobs)
	if err := sched.Start(); err != nil {
		log.Fatal(err)
	}
	defer sched.Stop()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://127.0.0.1:3000, http://localhost:3000",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	authH := &handlers.AuthHandler{
		Store:     st,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	jobH := handlers.NewJobHandler(jobs)
	bidH := handlers.NewBidHandler(bids)
	creditH := handlers.NewCreditHandler(st, credits)
	notifH := handlers.NewNotificationHandler(st)
	providerH := handlers.NewProviderHandler(st, router)
	wsH := handlers.NewWSHandler(hub, st, router)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)

	// protected (JWT)
	protected := api.Group("/",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", authH.Me)

	// jobs
	protected.Post("/jobs", middleware.RequireRoles("requester"), jobH.Create)
	protected.Get("/jobs", jobH.List)
	protected.Get("/jobs/:id", jobH.Get)
	protected.Put("/jobs/:id", middleware.RequireRoles("requester"), jobH.Update)
	protected.Post("/jobs/:id/cancel", middleware.RequireRoles("requester"), jobH.Cancel)
	protected.Post("/jobs/:id/mark-complete", middleware.RequireRoles("provider"), jobH.MarkComplete)
	protected.Post("/jobs/:id/confirm-complete", middleware.RequireRoles("requester"), jobH.ConfirmComplete)
	protected.Post("/jobs/:id/review", middleware.RequireRoles("requester"), jobH.CreateReview)
	protected.Delete("/jobs/:id", middleware.RequireRoles("requester"), jobH.Delete)

	// bids
	protected.Post("/bids", middleware.RequireRoles("provider"), bidH.Create)
	protected.Get("/bids/job/:jobId", bidH.ListByJob)
	protected.Get("/bids/my-bids", middleware.RequireRoles("provider"), bidH.ListMine)
	protected.Put("/bids/:id", middleware.RequireRoles("provider"), bidH.Update)
	protected.Post("/bids/:id/accept", middleware.RequireRoles("requester"), bidH.Accept)
	protected.Post("/bids/:id/reject", middleware.RequireRoles("requester"), bidH.Reject)
	protected.Post("/bids/:id/withdraw", middleware.RequireRoles("provider"), bidH.Withdraw)
	protected.Delete("/bids/:id", middleware.RequireRoles("provider"), bidH.Delete)

	// credits
	protected.Post("/credits/purchase", middleware.RequireRoles("provider"), creditH.Purchase)
	protected.Get("/credits/balance", middleware.RequireRoles("provider"), creditH.Balance)
	protected.Get("/credits/history", middleware.RequireRoles("provider"), creditH.History)

	// notifications
	protected.Get("/notifications", notifH.List)
	protected.Post("/notifications/:id/read", notifH.MarkRead)
	protected.Get("/notifications/unread-count", notifH.UnreadCount)

	// provider profile
	protected.Get("/provider/me", middleware.RequireRoles("provider"), providerH.Me)
	protected.Put("/provider/profile", middleware.RequireRoles("provider"), providerH.UpdateProfile)
	protected.Post("/provider/push-token", middleware.RequireRoles("provider"), providerH.RegisterPushToken)

	// websocket (auth via query param, same as the mobile clients)
	app.Get("/ws", websocket.New(wsH.Handle))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
