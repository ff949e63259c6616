package module

import (
	"fmt"
	"time"

	"vendormatch/internal/core/version"
	"vendormatch/internal/platform/config"
	"vendormatch/internal/platform/store"
	"vendormatch/internal/platform/validate"
	"vendormatch/internal/services/matching/fallback"
	"vendormatch/internal/services/matching/gateway"
	"vendormatch/internal/services/matching/service"
)

// Options holds configuration settings for the matching module
type Options struct {
	// registry gateway
	ProbeTimeout  time.Duration `json:"probe_timeout" validate:"gt=0,ltfield=QueryTimeout"`
	QueryTimeout  time.Duration `json:"query_timeout" validate:"gt=0"`
	RegistryRPS   float64       `json:"registry_rps" validate:"gte=0"`
	RegistryBurst int           `json:"registry_burst" validate:"gte=1"`

	// batch
	Workers int  `json:"workers" validate:"gt=0,max=256"`
	Dedupe  bool `json:"dedupe"`

	Aliases bool `json:"aliases"`

	// ranking
	MinSimilarity  float64 `json:"min_similarity" validate:"gt=0,ratio"`
	MaxSuggestions int     `json:"max_suggestions" validate:"gt=0"`

	// fallback
	FallbackPatterns       []string `json:"fallback_patterns" validate:"min=1,dive,required,max=255"`
	FallbackMinSimilarity  float64  `json:"fallback_min_similarity" validate:"gt=0,ratio"`
	FallbackMaxSuggestions int      `json:"fallback_max_suggestions" validate:"gt=0"`
}

// FromConfig reads configuration settings from the config.Conf and panics when they are out of range
func FromConfig(cfg config.Conf) Options {
	mc := cfg.Prefix("MATCH_")
	opts := Options{
		ProbeTimeout:  mc.MayDuration("PROBE_TIMEOUT", gateway.DefaultProbeTimeout),
		QueryTimeout:  mc.MayDuration("QUERY_TIMEOUT", gateway.DefaultQueryTimeout),
		RegistryRPS:   mc.MayFloat64("REGISTRY_RPS", 0),
		RegistryBurst: mc.MayInt("REGISTRY_BURST", 1),

		Workers: mc.MayInt("WORKERS", service.DefaultWorkers),
		Dedupe:  mc.MayBool("DEDUPE", true),
		Aliases: mc.MayBool("ALIASES", false),

		MinSimilarity:  mc.MayFloat64("MIN_SIMILARITY", service.DefaultMinSimilarity),
		MaxSuggestions: mc.MayInt("MAX_SUGGESTIONS", service.DefaultMaxSuggestions),

		FallbackPatterns:       mc.MayCSV("FALLBACK_PATTERNS", fallback.DefaultPatterns),
		FallbackMinSimilarity:  mc.MayFloat64("FALLBACK_MIN_SIMILARITY", fallback.DefaultMinSimilarity),
		FallbackMaxSuggestions: mc.MayInt("FALLBACK_MAX_SUGGESTIONS", fallback.DefaultMaxSuggestions),
	}
	if err := validate.Struct(opts); err != nil {
		panic(fmt.Sprintf("matching: invalid MATCH_ options: %v", err))
	}
	return opts
}

// StoreConfig reads the registry database settings. The database is enabled when MATCH_PG_DBURL is set
func StoreConfig(cfg config.Conf) store.Config {
	pc := cfg.Prefix("MATCH_PG_")
	url := pc.MayString("DBURL", "")
	return store.Config{
		AppName: cfg.MayString("APP_NAME", version.Info().Service),
		PG: store.PGConfig{
			Enabled:        url != "",
			URL:            url,
			MaxConns:       int32(pc.MayInt("MAX_CONNS", 8)),
			LogSQL:         pc.MayBool("LOG_SQL", false),
			SlowQueryMs:    pc.MayInt("SLOW_MS", 200),
			ConnectRetries: pc.MayInt("CONNECT_RETRIES", 0),
			PingTimeout:    pc.MayDuration("PING_TIMEOUT", 0),
		},
	}
}
