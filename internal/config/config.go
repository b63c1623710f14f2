package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                          string        `mapstructure:"PORT"`
	DatabaseURL                   string        `mapstructure:"DATABASE_URL"`
	JWTSecret                     string        `mapstructure:"JWT_SECRET"`
	LogMode                       string        `mapstructure:"LOG_MODE"`
	Timezone                      string        `mapstructure:"TIMEZONE"`
	StoreTimeout                  time.Duration `mapstructure:"STORE_TIMEOUT"`
	NearbyRadiusKm                float64       `mapstructure:"NEARBY_RADIUS_KM"`
	GridResolution                float64       `mapstructure:"GRID_RESOLUTION"`
	TopAreas                      int           `mapstructure:"TOP_AREAS"`
	LeaderboardSize               int           `mapstructure:"LEADERBOARD_SIZE"`
	AchievementsFile              string        `mapstructure:"ACHIEVEMENTS_FILE"`
	RedisAddr                     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword                 string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB                       int           `mapstructure:"REDIS_DB"`
	DiscordBotToken               string        `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string        `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`

	location *time.Location
}

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "sightings.db")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("NEARBY_RADIUS_KM", 5.0)
	v.SetDefault("GRID_RESOLUTION", 0.01)
	v.SetDefault("TOP_AREAS", 5)
	v.SetDefault("LEADERBOARD_SIZE", 10)
	v.SetDefault("REDIS_DB", 0)

	v.BindEnv("JWT_SECRET")
	v.BindEnv("ACHIEVEMENTS_FILE")
	v.BindEnv("REDIS_ADDR")
	v.BindEnv("REDIS_PASSWORD")
	v.BindEnv("DISCORD_BOT_TOKEN")
	v.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", config.Timezone, err)
	}
	config.location = loc

	if config.StoreTimeout <= 0 {
		return nil, fmt.Errorf("STORE_TIMEOUT must be positive, got %s", config.StoreTimeout)
	}
	if config.GridResolution <= 0 {
		return nil, fmt.Errorf("GRID_RESOLUTION must be positive, got %v", config.GridResolution)
	}

	return &config, nil
}

// Location is the zone used to derive the local creation hour of a report.
// A Config built by hand without a zone falls back to time.Local.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}
