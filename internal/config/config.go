package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds application settings. Precedence: flags over environment over
// config file over defaults.
type Config struct {
	LogPath       string
	TickInterval  time.Duration
	DefaultPreset string
	ReminderSound string
}

const envPrefix = "INTERVAL_PACER"

// Load parses flags from args and merges them with the environment and an
// optional YAML config file (~/.interval-pacer/config.yaml, or --config).
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("interval-pacer", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to config file")
	fs.String("log-path", defaultLogPath(), "path to the rotating log file")
	fs.Duration("tick-interval", time.Second, "how often the session scheduler ticks")
	fs.String("preset", "", "preset selected at startup")
	fs.String("reminder-sound", "chime", "sound name passed to the reminder subsystem")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetDefault("log_path", defaultLogPath())
	v.SetDefault("tick_interval", time.Second)
	v.SetDefault("default_preset", "")
	v.SetDefault("reminder_sound", "chime")

	for key, flag := range map[string]string{
		"log_path":       "log-path",
		"tick_interval":  "tick-interval",
		"default_preset": "preset",
		"reminder_sound": "reminder-sound",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", *configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(homeDir(), ".interval-pacer"))
		// A missing default config file is fine.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	c := &Config{
		LogPath:       v.GetString("log_path"),
		TickInterval:  v.GetDuration("tick_interval"),
		DefaultPreset: v.GetString("default_preset"),
		ReminderSound: v.GetString("reminder_sound"),
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	if c.LogPath == "" {
		return fmt.Errorf("log path must not be empty")
	}
	return nil
}

func defaultLogPath() string {
	return filepath.Join(homeDir(), ".interval-pacer", "interval-pacer.log")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
