package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort         string
	AWSRegion          string
	AWSEndpoint        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	MessagesTable      string
	UsersTable         string
	JWTSecret          string
	ConversationWindow int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from system environment")
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		AWSRegion:          getEnv("AWS_REGION", "eu-central-1"),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		MessagesTable:      getEnv("MESSAGES_TABLE", "Equilux_Messages"),
		UsersTable:         getEnv("USERS_TABLE", "Equilux_Users_Prosumers"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		ConversationWindow: getEnvInt("CONVERSATION_WINDOW", 100),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		log.Printf("Invalid value for %s: %q, using %d", key, val, fallback)
		return fallback
	}
	return n
}
