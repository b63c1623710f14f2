package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/ratwatch/sighting-api/internal/aggregator"
	"github.com/ratwatch/sighting-api/internal/auth"
	"github.com/ratwatch/sighting-api/internal/catalog"
	"github.com/ratwatch/sighting-api/internal/config"
	"github.com/ratwatch/sighting-api/internal/database"
	"github.com/ratwatch/sighting-api/internal/engine"
	"github.com/ratwatch/sighting-api/internal/handlers"
	"github.com/ratwatch/sighting-api/internal/leaderboard"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/notifier"
	"github.com/ratwatch/sighting-api/internal/store"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Connect to Database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("failed to connect database", "error", err)
	}

	// Seed the achievement catalog
	defs := catalog.DefaultDefinitions()
	if cfg.AchievementsFile != "" {
		if defs, err = catalog.ReadFile(cfg.AchievementsFile); err != nil {
			log.Fatal("failed to read achievements file", "path", cfg.AchievementsFile, "error", err)
		}
	}
	cat, err := catalog.Load(context.Background(), db, defs, log)
	if err != nil {
		log.Fatal("failed to load achievement catalog", "error", err)
	}

	reports := store.NewReports(db, log)
	users := store.NewUsers(db, log)

	var board leaderboard.Board = leaderboard.NewDB(users)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		redisBoard := leaderboard.NewRedis(client, users, log)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis not reachable, leaderboard will read from the database", "addr", cfg.RedisAddr, "error", err)
		} else if err := redisBoard.Warm(ctx); err != nil {
			log.Warn("failed to warm leaderboard", "error", err)
		}
		cancel()
		board = redisBoard
	}

	engineOpts := []engine.Option{
		engine.WithLocation(cfg.Location()),
		engine.WithTimeout(cfg.StoreTimeout),
		engine.WithLeaderboard(board),
		engine.WithLogger(log),
	}
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			log.Warn("discord notifier not initialized", "error", err)
		} else {
			engineOpts = append(engineOpts, engine.WithNotifier(
				notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID, log),
			))
		}
	}
	eng := engine.New(db, reports, cat, engineOpts...)

	agg := aggregator.New(reports,
		aggregator.WithResolution(cfg.GridResolution),
		aggregator.WithTopAreas(cfg.TopAreas),
		aggregator.WithTimeout(cfg.StoreTimeout),
		aggregator.WithLogger(log),
	)

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, users, log)
	sightingHandler := handlers.NewSightingHandler(eng, agg, cfg.NearbyRadiusKm, log)
	userHandler := handlers.NewUserHandler(users, cat)
	leaderboardHandler := handlers.NewLeaderboardHandler(board, cfg.LeaderboardSize)

	// Initialize Router
	r := chi.NewRouter()
	handlers.RegisterRoutes(r, authHandler, sightingHandler, userHandler, leaderboardHandler)

	// Start Server
	log.Info("starting server", "port", cfg.Port, "timezone", cfg.Location().String())
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal("failed to start server", "error", err)
	}
}
