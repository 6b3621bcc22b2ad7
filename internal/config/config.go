// internal/config/config.go
//
// Loads the application configuration.
//
// Resolution order:
//  1. Profile YAML: CONFIG_FILE if set, else the embedded profile named by
//     APP_ENV (development by default, production).
//  2. Environment overrides (PORT, JWT_SECRET, NATS_URL, ...). Callers run
//     godotenv.Load() first so a local .env participates.
//  3. Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/typelanes/assets"
	"github.com/robalobadob/typelanes/internal/game"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Game struct {
		Duration     int           `yaml:"duration"`
		TickInterval time.Duration `yaml:"tickInterval"`
	} `yaml:"game"`
	Lanes struct {
		Count     int      `yaml:"count"`
		NumberMin int      `yaml:"numberMin"`
		NumberMax int      `yaml:"numberMax"`
		Ranges    [][2]int `yaml:"ranges"`
		WordTimer int      `yaml:"wordTimer"`
	} `yaml:"lanes"`
	Words struct {
		File string `yaml:"file"`
	} `yaml:"words"`
	Server struct {
		Port         string        `yaml:"port"`
		ClientOrigin string        `yaml:"clientOrigin"`
		JWTSecret    string        `yaml:"jwtSecret"`
		TokenTTL     time.Duration `yaml:"tokenTTL"`
		ReapInterval time.Duration `yaml:"reapInterval"`
	} `yaml:"server"`
	Events struct {
		NatsURL       string `yaml:"natsURL"`
		SubjectPrefix string `yaml:"subjectPrefix"`
	} `yaml:"events"`
	Daily struct {
		Salt string `yaml:"salt"`
	} `yaml:"daily"`
	UI struct {
		Colors Colors `yaml:"colors"`
	} `yaml:"ui"`
}

// Colors are tcell color names used by the terminal host.
type Colors struct {
	Text     string `yaml:"text"`
	Active   string `yaml:"active"`
	Inactive string `yaml:"inactive"`
	Success  string `yaml:"success"`
	Danger   string `yaml:"danger"`
	Neutral  string `yaml:"neutral"`
}

// Load resolves the configuration for the current environment.
func Load() (*Config, error) {
	var (
		data []byte
		err  error
	)
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		profile := getEnv("APP_ENV", "development")
		data, err = assets.Profile(profile)
		if err != nil {
			return nil, fmt.Errorf("unknown profile %q: %w", profile, err)
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML without environment overrides or validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Game.TickInterval == 0 {
		cfg.Game.TickInterval = time.Second
	}
	if cfg.Server.TokenTTL == 0 {
		cfg.Server.TokenTTL = 2 * time.Hour
	}
	if cfg.Server.ReapInterval == 0 {
		cfg.Server.ReapInterval = time.Minute
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ClientOrigin = getEnv("CLIENT_ORIGIN", c.Server.ClientOrigin)
	c.Server.JWTSecret = getEnv("JWT_SECRET", c.Server.JWTSecret)
	c.Words.File = getEnv("WORDS_FILE", c.Words.File)
	c.Events.NatsURL = getEnv("NATS_URL", c.Events.NatsURL)
	c.Events.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.Events.SubjectPrefix)
	c.Daily.Salt = getEnv("DAILY_SALT", c.Daily.Salt)
	c.Game.Duration = getEnvAsInt("GAME_DURATION", c.Game.Duration)
	c.Lanes.Count = getEnvAsInt("LANE_COUNT", c.Lanes.Count)
	c.Lanes.WordTimer = getEnvAsInt("WORD_TIMER", c.Lanes.WordTimer)
}

// Validate checks what the engine needs to start a round; the word list is
// checked separately once loaded.
func (c *Config) Validate() error {
	switch {
	case c.Lanes.Count <= 0:
		return fmt.Errorf("%w: lanes.count must be positive", ErrInvalid)
	case c.Game.Duration <= 0:
		return fmt.Errorf("%w: game.duration must be positive", ErrInvalid)
	case c.Lanes.WordTimer <= 0:
		return fmt.Errorf("%w: lanes.wordTimer must be positive", ErrInvalid)
	case c.Game.TickInterval <= 0:
		return fmt.Errorf("%w: game.tickInterval must be positive", ErrInvalid)
	case len(c.Lanes.Ranges) > 0 && len(c.Lanes.Ranges) != c.Lanes.Count:
		return fmt.Errorf("%w: %d lanes.ranges for %d lanes", ErrInvalid, len(c.Lanes.Ranges), c.Lanes.Count)
	case len(c.Lanes.Ranges) == 0 && (c.Lanes.NumberMax-c.Lanes.NumberMin+1) < c.Lanes.Count:
		return fmt.Errorf("%w: number domain %d-%d too small for %d lanes",
			ErrInvalid, c.Lanes.NumberMin, c.Lanes.NumberMax, c.Lanes.Count)
	}
	return nil
}

// GameConfig builds the engine configuration for the given word list.
func (c *Config) GameConfig(words []string) game.Config {
	gc := game.Config{
		Lanes:        c.Lanes.Count,
		NumberMin:    c.Lanes.NumberMin,
		NumberMax:    c.Lanes.NumberMax,
		LaneSeconds:  c.Lanes.WordTimer,
		RoundSeconds: c.Game.Duration,
		TickInterval: c.Game.TickInterval,
		Words:        words,
	}
	for _, r := range c.Lanes.Ranges {
		gc.Ranges = append(gc.Ranges, game.Range{Min: r[0], Max: r[1]})
	}
	return gc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
