package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"reflect"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// WebServer Configuration
	WebServerPort int    `mapstructure:"WEBSERVER_PORT"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	MaxUploadSize string `mapstructure:"MAX_UPLOAD_SIZE" validate:"required"`

	// Database Configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	// Media Configuration
	UploadPath             string        `mapstructure:"FILE_UPLOAD_PATH" validate:"required"`
	HLSPath                string        `mapstructure:"VIDEO_HLS_PATH" validate:"required"`
	HLSSegmentSeconds      int           `mapstructure:"HLS_SEGMENT_SECONDS" validate:"min=1,max=60"`
	ThumbnailSize          string        `mapstructure:"THUMBNAIL_SIZE" validate:"required"`
	ThumbnailOffsetPercent int           `mapstructure:"THUMBNAIL_OFFSET_PERCENT" validate:"min=0,max=100"`
	TranscodeTimeout       time.Duration `mapstructure:"TRANSCODE_TIMEOUT" validate:"gt=0"`

	// Derived from the string settings above after loading.
	MaxUploadBytes  int64 `mapstructure:"-"`
	ThumbnailWidth  int   `mapstructure:"-"`
	ThumbnailHeight int   `mapstructure:"-"`
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		viper.BindEnv(tag)
	}
}

func LoadConfig(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("WEBSERVER_PORT", 3000)
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("MAX_UPLOAD_SIZE", "2GB")
	viper.SetDefault("FILE_UPLOAD_PATH", "./uploads")
	viper.SetDefault("VIDEO_HLS_PATH", "./hls")
	viper.SetDefault("HLS_SEGMENT_SECONDS", 10)
	viper.SetDefault("THUMBNAIL_SIZE", "320x240")
	viper.SetDefault("THUMBNAIL_OFFSET_PERCENT", 10)
	viper.SetDefault("TRANSCODE_TIMEOUT", "2h")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.derive(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	slog.Info("Loaded configuration",
		"port", cfg.WebServerPort,
		"upload_path", cfg.UploadPath,
		"hls_path", cfg.HLSPath,
		"max_upload", humanize.Bytes(uint64(cfg.MaxUploadBytes)),
		"transcode_timeout", cfg.TranscodeTimeout,
	)

	return &cfg, nil
}

func (c *Config) derive() error {
	size, err := humanize.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("MAX_UPLOAD_SIZE: %w", err)
	}
	if size == 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	c.MaxUploadBytes = int64(size)

	w, h, err := ParseSize(c.ThumbnailSize)
	if err != nil {
		return fmt.Errorf("THUMBNAIL_SIZE: %w", err)
	}
	c.ThumbnailWidth, c.ThumbnailHeight = w, h
	return nil
}

// ParseSize parses a WIDTHxHEIGHT string such as "320x240".
func ParseSize(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return w, h, nil
}
