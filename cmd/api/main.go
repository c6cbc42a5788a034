package main

import (
	"log"
	"net/http"

	"pearadox/internal/api"
	"pearadox/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	h := api.NewServer(cfg)
	log.Printf("pearadox api listening on %s base_url=%s", cfg.APIAddr, cfg.SiteBaseURL)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
