package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kelechi-dev/workbid/internal/auth"
	"github.com/kelechi-dev/workbid/internal/db"
	"github.com/kelechi-dev/workbid/internal/escrow"
	"github.com/kelechi-dev/workbid/internal/events"
	"github.com/kelechi-dev/workbid/internal/feed"
	"github.com/kelechi-dev/workbid/internal/identity"
	"github.com/kelechi-dev/workbid/internal/listing"
	applog "github.com/kelechi-dev/workbid/internal/logger"
	"github.com/kelechi-dev/workbid/internal/market"
	appmw "github.com/kelechi-dev/workbid/internal/middleware"
	"github.com/kelechi-dev/workbid/internal/notify"
)

func main() {
	_ = godotenv.Load()
	if err := applog.Init(); err != nil {
		log.Fatalf("logger init: %v", err)
	}

	// Init subsystems
	if err := db.Init(); err != nil {
		log.Fatalf("db init: %v", err)
	}
	defer db.Close()
	notify.Init()
	defer notify.Close()

	bus := events.NewBus()
	defer notify.Forward(bus)()

	hub := feed.NewHub()
	defer hub.Run(bus)()

	// Services over the Postgres stores
	registry := identity.NewRegistry(identity.NewPostgresStore(db.Conn), bus)
	board := market.NewBoard(market.NewPostgresStore(db.Conn), registry, bus)
	ledger := escrow.NewLedger(escrow.NewPostgresStore(db.Conn), bus)
	catalog := listing.NewCatalog(listing.NewPostgresStore(db.Conn), registry, bus)

	authHandler := auth.NewHandler(auth.NewPostgresCredentialStore(db.Conn), registry)
	identityHandler := identity.NewHandler(registry)
	marketHandler := market.NewHandler(board)
	escrowHandler := escrow.NewHandler(ledger, board, escrow.DefaultCommissionRateBP)
	listingHandler := listing.NewHandler(catalog)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Health
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// Public auth routes
	e.POST("/signup", authHandler.Signup)
	e.POST("/login", authHandler.Login)

	// Public discovery
	e.GET("/jobs", marketHandler.ListJobs)
	e.GET("/jobs/:id", marketHandler.GetJob)
	e.GET("/jobs/:id/bids", marketHandler.GetBids)
	e.GET("/services", listingHandler.ListAll)
	e.GET("/providers/:identity/services", listingHandler.ListByProvider)
	e.GET("/users/:identity/role", identityHandler.GetRole)
	e.GET("/users/:identity", identityHandler.GetProfile)

	// Authenticated group
	g := e.Group("")
	g.Use(appmw.JWTMiddleware)

	g.GET("/me", authHandler.Me)
	g.GET("/events/ws", hub.EventsWS)

	// Jobs and bids
	g.POST("/jobs", marketHandler.CreateJob, appmw.RequireRoles("client"))
	g.GET("/jobs/mine", marketHandler.MyJobs)
	g.POST("/jobs/:id/bids", marketHandler.PlaceBid, appmw.RequireRoles("service_provider"))
	g.POST("/jobs/:id/accept", marketHandler.AcceptBid, appmw.RequireRoles("client"))

	// Service listings
	g.POST("/services", listingHandler.AddService, appmw.RequireRoles("service_provider"))

	// Escrow
	g.POST("/agreements", escrowHandler.CreateAgreement, appmw.RequireRoles("client"))
	g.GET("/agreements/:id", escrowHandler.GetAgreement)
	g.GET("/agreements/:id/deposits", escrowHandler.GetDeposits)
	g.POST("/agreements/:id/deposit", escrowHandler.Deposit, appmw.RequireRoles("client"))
	g.POST("/agreements/:id/release", escrowHandler.Release, appmw.RequireRoles("client"))
	g.POST("/agreements/:id/withdraw", escrowHandler.Withdraw, appmw.RequireRoles("service_provider"))
	g.GET("/balance", escrowHandler.MyBalance)
	g.GET("/platform/commission", escrowHandler.Commission)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("API server listening on :%s", port)
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
