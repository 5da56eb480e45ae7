package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerPort  string
	Environment string

	// Номер WhatsApp, на который уходит заказ (формат BR без + и пробелов, ex: 65999999999)
	DefaultContact  string
	ContactEditable bool // на форме поле номера заблокировано, пока это false
	MaxItemQuantity int  // 0 = без ограничения

	DispatchBaseURL string
	Currency        string
	OrderTitle      string

	RedisURL           string   // пусто = сессии в памяти
	RedisSentinelAddrs []string // Адреса Sentinel (через запятую)
	RedisMasterName    string   // Имя мастера в Sentinel
	SessionTTL         time.Duration
}

func Load() *Config {
	// Railway может отдавать Redis под разными именами
	redisURL := getEnv("REDIS_URL", "")
	if redisURL == "" {
		redisURL = getEnv("REDISCLOUD_URL", "")
	}

	sentinelAddrsStr := getEnv("REDIS_SENTINEL_ADDRS", "")
	var sentinelAddrs []string
	if sentinelAddrsStr != "" {
		for _, addr := range strings.Split(sentinelAddrsStr, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				sentinelAddrs = append(sentinelAddrs, addr)
			}
		}
	}

	return &Config{
		ServerPort:         getEnv("PORT", "8080"),
		Environment:        getEnv("ENV", "development"),
		DefaultContact:     lookupEnv("DEFAULT_WHATSAPP", "65999114215"),
		ContactEditable:    getEnvBool("CONTACT_EDITABLE", false),
		MaxItemQuantity:    getEnvInt("MAX_ITEM_QUANTITY", 0),
		DispatchBaseURL:    getEnv("DISPATCH_BASE_URL", "https://wa.me"),
		Currency:           getEnvTrimmed("CURRENCY", "R$"),
		OrderTitle:         getEnvTrimmed("ORDER_TITLE", "*Pedido — Espetinho Solidário*"),
		RedisURL:           redisURL,
		RedisSentinelAddrs: sentinelAddrs,
		RedisMasterName:    getEnv("REDIS_MASTER_NAME", "mymaster"),
		SessionTTL:         getEnvDuration("SESSION_TTL", 2*time.Hour),
	}
}

// IsDevelopment локальная разработка (подробные логи, gin debug)
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// UseRedis сессии в Redis, если задан URL или Sentinel
func (c *Config) UseRedis() bool {
	return c.RedisURL != "" || len(c.RedisSentinelAddrs) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvTrimmed для текстов сообщения: пробелы по краям срезаются, одни пробелы = не задано
func getEnvTrimmed(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv как getEnv, но явно заданная пустая строка тоже значение
// (DEFAULT_WHATSAPP= означает, что клиент вводит номер сам)
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
