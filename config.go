package pomoclock

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DatabaseURLKey    = "POMOCLOCK_DB_PATH"
	BotNameKey        = "POMOCLOCK_BOT_NAME"
	BotTokenKey       = "POMOCLOCK_BOT_TOKEN"
	GuildIDKey        = "POMOCLOCK_GUILD_ID"
	VoiceChannelIDKey = "POMOCLOCK_VOICE_CHANNEL_ID"
	CueSoundPathKey   = "POMOCLOCK_CUE_SOUND_PATH"
	UpdateIntervalKey = "POMOCLOCK_UPDATE_INTERVAL"
	LengthEditsKey    = "POMOCLOCK_LENGTH_EDITS"
	LogLevelKey       = "POMOCLOCK_LOG_LEVEL"
)

// Values accepted for Config.LengthEdits.
const (
	LengthEditsActive   = "active"
	LengthEditsInactive = "inactive"
)

type Config struct {
	DatabaseURL    string        `yaml:"database_url"`
	BotName        string        `yaml:"bot_name"`
	BotToken       string        `yaml:"bot_token"`
	GuildID        string        `yaml:"guild_id"`
	VoiceChannelID string        `yaml:"voice_channel_id"`
	CueSoundPath   string        `yaml:"cue_sound_path"`
	UpdateInterval time.Duration `yaml:"update_interval"`
	LengthEdits    string        `yaml:"length_edits"`
	LogLevel       string        `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		BotName:        "Pomoclock",
		UpdateInterval: 10 * time.Second,
		LengthEdits:    LengthEditsActive,
		LogLevel:       "info",
	}
}

// LoadConfig layers defaults, the optional YAML file at path, the dotenv file
// and finally the process environment.
func LoadConfig(path string, isProd bool) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Debug("no config file", "path", path)
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if isProd {
		_ = godotenv.Load(".env")
	} else {
		_ = godotenv.Load(".env.dev")
	}

	for key, dst := range map[string]*string{
		DatabaseURLKey:    &config.DatabaseURL,
		BotNameKey:        &config.BotName,
		BotTokenKey:       &config.BotToken,
		GuildIDKey:        &config.GuildID,
		VoiceChannelIDKey: &config.VoiceChannelID,
		CueSoundPathKey:   &config.CueSoundPath,
		LengthEditsKey:    &config.LengthEdits,
		LogLevelKey:       &config.LogLevel,
	} {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv(UpdateIntervalKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", UpdateIntervalKey, err)
		}
		config.UpdateInterval = d
	}

	if config.BotName == "" {
		config.BotName = "Pomoclock"
	}
	if config.UpdateInterval <= 0 {
		config.UpdateInterval = DefaultConfig().UpdateInterval
	}
	switch config.LengthEdits {
	case "":
		config.LengthEdits = LengthEditsActive
	case LengthEditsActive, LengthEditsInactive:
	default:
		return Config{}, fmt.Errorf("invalid length_edits %q: want %q or %q", config.LengthEdits, LengthEditsActive, LengthEditsInactive)
	}
	if _, err := log.ParseLevel(config.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid log_level: %w", err)
	}

	return config, nil
}

// RequireBot reports whether the Discord front-ends can start.
func (c Config) RequireBot() error {
	if c.BotToken == "" {
		return fmt.Errorf("required environment variable: %s", BotTokenKey)
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
