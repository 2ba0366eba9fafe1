package main

import (
	"log"

	"github.com/lichen18/navi-profile-go/internal/api"
	"github.com/lichen18/navi-profile-go/internal/config"
	"github.com/lichen18/navi-profile-go/internal/database"
	"github.com/lichen18/navi-profile-go/internal/extractor"
	"github.com/lichen18/navi-profile-go/internal/features"
	"github.com/lichen18/navi-profile-go/internal/handler"
	"github.com/lichen18/navi-profile-go/internal/oracle"
	"github.com/lichen18/navi-profile-go/internal/repository"
	"github.com/lichen18/navi-profile-go/internal/service"
)

func main() {
	cfg := config.Load()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	cache, err := oracle.NewCache(cfg.OracleCacheSize, database.GetDB())
	if err != nil {
		log.Fatal("Failed to initialize oracle cache:", err)
	}

	amap := oracle.NewAmapClient(cfg.AmapBaseURL, cfg.AmapKey, cfg.AmapTimeout)
	distance := &oracle.CachedDistanceOracle{Inner: amap, Cache: cache}
	geo := &oracle.CachedGeoOracle{Inner: amap, Cache: cache}
	llm := oracle.NewLLMClient(oracle.LLMConfig{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	})

	ex := extractor.New(llm, extractor.Options{
		MergeThresholdSeconds: cfg.MergeThresholdSeconds,
	})
	engine := features.NewEngine(distance, geo, features.Options{
		RegularWindowMinutes: cfg.RegularWindowMinutes,
	})
	repo := repository.NewProfileRepository(database.GetDB())
	svc := service.NewProfileService(ex, engine, llm, repo)

	router := api.SetupRouter(handler.NewProfileHandler(svc))

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
