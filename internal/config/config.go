package config

import (
	"os"
	"strconv"

	"github.com/yutasato/campus-crm-api/internal/constants"
)

type Config struct {
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	RedisHost          string
	RedisPort          string
	SessionSecret      string
	GinMode            string
	FollowupOffsetDays int
}

func Load() *Config {
	return &Config{
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBUser:             getEnv("DB_USER", "crmuser"),
		DBPassword:         getEnv("DB_PASSWORD", "crmpassword"),
		DBName:             getEnv("DB_NAME", "campus_crm"),
		RedisHost:          getEnv("REDIS_HOST", "localhost"),
		RedisPort:          getEnv("REDIS_PORT", "6379"),
		SessionSecret:      getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		FollowupOffsetDays: getEnvInt("FOLLOWUP_OFFSET_DAYS", constants.DefaultFollowupOffsetDays),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
