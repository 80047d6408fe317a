// Package config defines runtime configuration and its layered loading.
package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr string `koanf:"addr"`

	MongoURI           string        `koanf:"mongo_uri"`
	MongoDatabase      string        `koanf:"mongo_db"`
	CanteenCollection  string        `koanf:"canteen_collection"`
	ReviewCollection   string        `koanf:"review_collection"`
	FeedbackCollection string        `koanf:"feedback_collection"`
	MongoTimeout       time.Duration `koanf:"mongo_timeout"`

	RequestTimeout time.Duration `koanf:"request_timeout"`
	Timezone       string        `koanf:"timezone"`
	AllowedOrigins []string      `koanf:"allowed_origins"`

	// ClientTokenSecret signs the anonymous client identity cookie. The
	// process refuses to start without it.
	ClientTokenSecret  string `koanf:"client_token_secret"`
	ClientCookieSecure bool   `koanf:"client_cookie_secure"`

	BrregBaseURL      string        `koanf:"brreg_base_url"`
	GeonorgeBaseURL   string        `koanf:"geonorge_base_url"`
	DirectoryCacheTTL time.Duration `koanf:"directory_cache_ttl"`
	GeocodeCacheTTL   time.Duration `koanf:"geocode_cache_ttl"`

	ServerLog *log.Logger `koanf:"-"`
}

// defaults returns the base configuration before file and env layers.
func defaults() Config {
	return Config{
		Addr:               ":8080",
		MongoURI:           "mongodb://mongo:27017",
		MongoDatabase:      "kantineguiden",
		CanteenCollection:  "canteens",
		ReviewCollection:   "reviews",
		FeedbackCollection: "feedback",
		MongoTimeout:       10 * time.Second,
		RequestTimeout:     10 * time.Second,
		Timezone:           "Europe/Oslo",
		AllowedOrigins:     []string{"*"},
		BrregBaseURL:       "https://data.brreg.no/enhetsregisteret/api",
		GeonorgeBaseURL:    "https://ws.geonorge.no/adresser/v1/sok",
		DirectoryCacheTTL:  5 * time.Minute,
		GeocodeCacheTTL:    time.Hour,
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables.
// Order of precedence (low -> high):
//  1. defaults
//  2. file (YAML) if KANTINE_CONFIG is set
//  3. env (prefix KANTINE_)
func Load() (Config, error) {
	cfg := defaults()

	k := koanf.New(".")

	if path := os.Getenv("KANTINE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, err
		}
	}

	// KANTINE_MONGO_URI -> mongo_uri, matching the koanf struct tags.
	envProvider := env.Provider("KANTINE_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "kantine_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, err
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, err
	}

	if cfg.Addr == "" {
		return Config{}, errors.New("addr must not be empty")
	}
	if strings.TrimSpace(cfg.ClientTokenSecret) == "" {
		return Config{}, errors.New("client_token_secret must be configured")
	}

	cfg.ServerLog = log.New(os.Stdout, "[kantineguiden-api] ", log.LstdFlags|log.Lshortfile)
	return cfg, nil
}
