package main

import (
	"log"
	"net/http"
	"time"

	"briscola-server/internal/config"
	"briscola-server/internal/database"
	"briscola-server/internal/game"
	"briscola-server/internal/server"
)

func main() {
	log.Println("Starting briscola server...")

	cfg := config.Load()

	db, err := database.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to open results database: %v", err)
	}
	defer db.Close()

	registry := game.NewRegistry()

	hub := server.NewHub(registry, db)
	go hub.Run()

	if cfg.SessionIdleTime > 0 {
		go func() {
			for range time.Tick(time.Minute) {
				if n := registry.Sweep(cfg.SessionIdleTime); n > 0 {
					log.Printf("Swept %d idle sessions", n)
				}
			}
		}()
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWs(hub, w, r)
	})

	server.HandleRoutes(db, registry)

	log.Printf("Listening on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, nil))
}
