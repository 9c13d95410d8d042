package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the face gate service.
type Server struct {
	Addr              string
	DatabaseURL       string
	RedisURL          string
	KafkaBrokers      string
	AuditTopic        string
	MatchThreshold    float64
	DirectoryCacheTTL time.Duration
	DetectorWarmup    time.Duration
	MinFaceSize       int
}

// Defaults. MatchThreshold is the accept boundary for verification; a probe
// scoring exactly the threshold is accepted.
const (
	DefaultMatchThreshold    = 0.90
	DefaultDirectoryCacheTTL = 5 * time.Minute
	DefaultDetectorWarmup    = time.Second
	DefaultMinFaceSize       = 32
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FACEGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	threshold := DefaultMatchThreshold
	if raw := os.Getenv("MATCH_THRESHOLD"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 && parsed <= 1 {
			threshold = parsed
		}
	}

	cacheTTL := DefaultDirectoryCacheTTL
	if raw := os.Getenv("DIRECTORY_CACHE_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			cacheTTL = parsed
		}
	}

	warmup := DefaultDetectorWarmup
	if raw := os.Getenv("DETECTOR_WARMUP"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed >= 0 {
			warmup = parsed
		}
	}

	minFace := DefaultMinFaceSize
	if raw := os.Getenv("MIN_FACE_SIZE"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			minFace = parsed
		}
	}

	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "facegate.audit"
	}

	return Server{
		Addr:              addr,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		AuditTopic:        auditTopic,
		MatchThreshold:    threshold,
		DirectoryCacheTTL: cacheTTL,
		DetectorWarmup:    warmup,
		MinFaceSize:       minFace,
	}
}
