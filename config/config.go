package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendMongo    = "mongo"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	QRSecret       string
	StoreBackend   string

	MongoURI      string
	MongoDatabase string
	RedisAddr     string // empty disables the meetup cache
	RedisDB       int

	AWSRegion     string
	DynamoDBTable string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:           valueOr(getenv("PORT"), "8080"),
		AllowedOrigins: splitList(valueOr(getenv("ALLOWED_ORIGINS"), "http://localhost:3000,http://localhost:5173")),
		QRSecret:       getenv("QR_SECRET"),
		StoreBackend:   strings.ToLower(valueOr(getenv("STORE_BACKEND"), BackendMemory)),
		MongoURI:       getenv("MONGODB_URI"),
		MongoDatabase:  valueOr(getenv("MONGODB_DATABASE"), "meetup_db"),
		RedisAddr:      getenv("REDIS_ADDR"),
		AWSRegion:      getenv("AWS_REGION"),
		DynamoDBTable:  valueOr(getenv("DYNAMODB_TABLE"), "Meetups"),
	}

	if cfg.QRSecret == "" {
		if getenv("APP_ENV") != "development" {
			return nil, fmt.Errorf("QR_SECRET environment variable is not set")
		}
		cfg.QRSecret = "development-qr-secret"
		log.Println("QR_SECRET not set, using development secret")
	}

	if raw := getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value: %v", err)
		}
		cfg.RedisDB = db
	}

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI environment variable is not set")
		}
	case BackendDynamoDB:
		if cfg.AWSRegion == "" {
			return nil, fmt.Errorf("AWS_REGION environment variable is not set")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return cfg, nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
