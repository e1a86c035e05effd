package server

import (
	"log"
	"net/http"

	"gatecrash/internal/broadcast"
	"gatecrash/internal/config"
	"gatecrash/internal/db"
	"gatecrash/internal/events"
	"gatecrash/internal/game"
	"gatecrash/internal/wshub"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func Run() error {
	appCfg := config.Load()

	bus := events.NewBus()
	manager := game.NewManager(game.Config{
		RoundDuration:     appCfg.RoundDuration,
		MaxPlayersPerTeam: appCfg.MaxPlayersPerTeam,
		NotLockoutSecs:    appCfg.NotLockoutSecs,
	}, bus)

	// Optional database connection: card artwork survives restarts when set.
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			manager.SetArtStore(database)
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	hub := wshub.NewHub()
	go broadcast.New(hub, manager).Run(bus)

	srv := &Server{
		Games: manager,
		Hub:   hub,
		Cfg:   appCfg,
	}

	addr := "0.0.0.0:" + appCfg.Port
	log.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
	return http.ListenAndServe(addr, srv.routes())
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWS)
	r.Post("/rooms", s.handleCreateRoom)
	r.Get("/rooms/{code}/qr", s.handleRoomQR)
	return r
}
