package config

import (
	"os"
	"strconv"
	"time"
)

// Config 服务配置，全部来自环境变量
type Config struct {
	HTTPAddr string

	// PostgreSQL
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis（可选，未配置时统计缓存关闭）
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// MQTT（可选）
	MQTTEnabled  bool
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	// Webhook 告警推送（可选，为空时不推送）
	WebhookURL string

	LogLevel  string
	LogFormat string
}

// Load 从环境变量加载配置，未设置的使用默认值
func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     parseInt(getEnv("DB_PORT", "5432"), 5432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "sced"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisEnabled:  getEnv("REDIS_ENABLED", "false") == "true",
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      time.Duration(parseInt(getEnv("CACHE_TTL_SECONDS", "300"), 300)) * time.Second,

		MQTTEnabled:  getEnv("MQTT_ENABLED", "false") == "true",
		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "sced-data"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		WebhookURL: getEnv("WEBHOOK_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultValue
}
