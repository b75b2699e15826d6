package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Order    OrderConfig
	Storage  StorageConfig
	Realtime RealtimeConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type OrderConfig struct {
	DeliveryFeePaise      int64
	FreeDeliveryOverPaise int64
	DefaultETAMinutes     int
	MaxRetryAttempts      int
}

// StorageConfig selects the order store backend: "mysql" for the durable
// store, "memory" to run without a database.
type StorageConfig struct {
	Backend string
}

type RealtimeConfig struct {
	SendBufferSize int
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	// Optional yaml file; env vars take precedence.
	if path := viper.GetString("CONFIG_FILE"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 3306)
	viper.SetDefault("DB_USER", "kirana")
	viper.SetDefault("DB_PASSWORD", "secret")
	viper.SetDefault("DB_NAME", "kirana")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("JWT_SECRET", "dev-secret")
	viper.SetDefault("JWT_TOKEN_TTL", "24h")
	viper.SetDefault("ORDER_DELIVERY_FEE_PAISE", 2500)
	viper.SetDefault("ORDER_FREE_DELIVERY_OVER_PAISE", 49900)
	viper.SetDefault("ORDER_DEFAULT_ETA_MINUTES", 10)
	viper.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", 3)
	viper.SetDefault("STORAGE_BACKEND", "mysql")
	viper.SetDefault("WS_SEND_BUFFER_SIZE", 32)
	viper.SetDefault("LOG_LEVEL", "info")

	shutdownTimeout, err := time.ParseDuration(viper.GetString("SERVER_SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, err
	}

	tokenTTL, err := time.ParseDuration(viper.GetString("JWT_TOKEN_TTL"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            viper.GetInt("SERVER_PORT"),
			ShutdownTimeout: shutdownTimeout,
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("JWT_SECRET"),
			TokenTTL:  tokenTTL,
		},
		Order: OrderConfig{
			DeliveryFeePaise:      viper.GetInt64("ORDER_DELIVERY_FEE_PAISE"),
			FreeDeliveryOverPaise: viper.GetInt64("ORDER_FREE_DELIVERY_OVER_PAISE"),
			DefaultETAMinutes:     viper.GetInt("ORDER_DEFAULT_ETA_MINUTES"),
			MaxRetryAttempts:      viper.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
		},
		Storage: StorageConfig{
			Backend: viper.GetString("STORAGE_BACKEND"),
		},
		Realtime: RealtimeConfig{
			SendBufferSize: viper.GetInt("WS_SEND_BUFFER_SIZE"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	return cfg, nil
}
