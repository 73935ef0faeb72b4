package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppPort       string
	DBDSN         string
	JWTSecret     string
	JWTExpiresMin int
	RedisAddr     string
	RedisPassword string
	// FallbackSnapshotPath is where the in-memory fallback store persists
	// its snapshot when Postgres is unreachable.
	FallbackSnapshotPath string
}

func Load() Config {
	expires, _ := strconv.Atoi(get("JWT_EXPIRES_MIN", "10080"))
	return Config{
		AppPort:              get("APP_PORT", "8080"),
		DBDSN:                get("DB_DSN", ""),
		JWTSecret:            must("JWT_SECRET"),
		JWTExpiresMin:        expires,
		RedisAddr:            get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        get("REDIS_PASSWORD", ""),
		FallbackSnapshotPath: get("FALLBACK_SNAPSHOT_PATH", "./data/fallback.json"),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
