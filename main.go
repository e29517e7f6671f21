package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"ruralbites/m/internal/api"
	"ruralbites/m/internal/billing"
	"ruralbites/m/internal/catalog"
	"ruralbites/m/internal/config"
	"ruralbites/m/internal/database"
	"ruralbites/m/internal/migrations"
	"ruralbites/m/internal/seed"
	"ruralbites/m/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	seed.LoadMenu(db, "assets/menu.csv")
	seed.LoadTables(db, "assets/tables.csv")

	cat := catalog.New(db)
	engine := billing.NewEngine(storage.NewSQLite(db), cat)
	handler := api.New(engine, cat, cfg.Secret, cfg.StaffUsername, cfg.StaffPassword, time.Duration(cfg.SessionTTL)*time.Hour)

	log.Printf("Rural Bites floor-service server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
