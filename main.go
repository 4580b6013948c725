package main

import (
	"fmt"
	"log"
	"os"

	"svsboard/pkg/ocr"
	"svsboard/pkg/pipeline"
	"svsboard/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)

func main() {
	// Load ./.env if present before reading vars; existing env wins.
	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Lightweight migrate command: `./svsboard migrate` runs AutoMigrate and
	// seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()

	cfg := pipeline.FromEnv()
	corrections, err := store.OpenCorrections(cfg.CorrectionsPath)
	if err != nil {
		log.Fatalf("open corrections: %v", err)
	}
	chain := ocr.NewChain(
		ocr.NewTesseract(cfg.OCRLanguage),
		ocr.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel),
	)
	p := pipeline.New(cfg, db, chain, corrections)

	r := gin.Default()
	setupRoutes(r, p)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8081"
	}
	r.Run(addr)
}
