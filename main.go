package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/takamineyasuyuki/sumi-x-orator/config"
	"github.com/takamineyasuyuki/sumi-x-orator/dispatch"
	"github.com/takamineyasuyuki/sumi-x-orator/menu"
	"github.com/takamineyasuyuki/sumi-x-orator/persona"
	"github.com/takamineyasuyuki/sumi-x-orator/server"
	"github.com/takamineyasuyuki/sumi-x-orator/sheets"
	"github.com/takamineyasuyuki/sumi-x-orator/tts"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	log.Println("Starting SUMI X Orator API ...")

	// Every collaborator initializes independently: a missing credential
	// disables that component and the process starts degraded.
	creds, credsErr := cfg.Credentials()
	if credsErr != nil {
		log.Printf("⚠️ Google credentials unavailable: %v", credsErr)
	}

	var cache *menu.Cache
	if credsErr == nil {
		store, err := sheets.New(ctx, cfg.SheetID, creds)
		if err != nil {
			log.Printf("⚠️ Google Sheets init failed, menu grounding disabled: %v", err)
		} else {
			cache = menu.NewCache(store, cfg.MenuCacheTTL, cfg.Location())
			if err := cache.Refresh(ctx); err != nil {
				log.Printf("⚠️ Initial sheet fetch failed, will retry on demand: %v", err)
			}
		}
	}

	aiSession, err := persona.New(ctx, persona.Options{
		APIKey:          cfg.GeminiAPIKey,
		Model:           cfg.GeminiModel,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
		RestaurantName:  cfg.RestaurantName,
		RestaurantInfo:  cfg.RestaurantInfo,
		Location:        cfg.Location(),
	})
	if err != nil {
		log.Printf("⚠️ Gemini init failed, chat disabled: %v", err)
	} else {
		log.Println("✅ Gemini AI ready")
	}

	trainingSession, err := persona.NewTraining(ctx, persona.TrainingOptions{
		APIKey:          cfg.GeminiAPIKey,
		Model:           cfg.TrainingModel,
		Temperature:     0.8,
		MaxOutputTokens: 1000,
		RestaurantName:  cfg.RestaurantName,
	})
	if err != nil {
		log.Printf("⚠️ Training persona init failed, training mode disabled: %v", err)
	}

	var synth tts.Synthesizer
	if credsErr == nil {
		c, err := tts.New(ctx, creds)
		if err != nil {
			log.Printf("⚠️ TTS init failed, speech disabled: %v", err)
		} else {
			synth = c
		}
	}

	var personaIface dispatch.Persona
	if aiSession != nil {
		personaIface = aiSession
	}
	var trainingIface dispatch.TrainingPersona
	if trainingSession != nil {
		trainingIface = trainingSession
	}
	dispatcher := dispatch.New(cache, personaIface, trainingIface)

	limiter := server.NewRateLimiter(cfg)
	defer limiter.Close()

	srv := server.New(cfg, dispatcher, synth, limiter, server.Components{
		Sheets:   cache != nil,
		AI:       aiSession != nil,
		Training: trainingSession != nil,
		TTS:      synth != nil,
	})

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\nReceived shutdown signal...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}
