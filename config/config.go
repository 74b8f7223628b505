package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	MySQL    MySQLConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
}

type ServerConfig struct {
	HTTPPort        string
	ShutdownTimeout int
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type CheckoutConfig struct {
	MaxAttempts    int
	RetryBackoffMS int
	AttemptTimeout int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        getEnv("HTTP_PORT", ":8080"),
			ShutdownTimeout: getEnvInt("SHUTDOWN_TIMEOUT", 5),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOGGER_LEVEL", "info"),
			Encoding: getEnv("LOGGER_ENCODING", "json"),
		},
		MySQL: MySQLConfig{
			DSN:             getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/marketplace?parseTime=true"),
			MaxOpenConns:    getEnvInt("MYSQL_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("MYSQL_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvInt("MYSQL_CONN_MAX_LIFETIME", 300),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 100),
		},
		Checkout: CheckoutConfig{
			MaxAttempts:    getEnvInt("CHECKOUT_MAX_ATTEMPTS", 3),
			RetryBackoffMS: getEnvInt("CHECKOUT_RETRY_BACKOFF_MS", 50),
			AttemptTimeout: getEnvInt("CHECKOUT_ATTEMPT_TIMEOUT", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
