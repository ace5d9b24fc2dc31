// Package config предоставляет структуры и функции для парсинга и загрузки конфига.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"DATABASE_URL"`
	MigrationsEnabled       bool   `yaml:"migrations_enabled" env:"MIGRATIONS_ENABLED" env-default:"true"`
	GRPCHealthAddress       string `yaml:"grpc_health_address" env:"GRPC_HEALTH_ADDRESS"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	SessionCookie           `yaml:"session_cookie"`
	MercadoPago             `yaml:"mercado_pago"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Scheduler               `yaml:"scheduler"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает redis целиком.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"168h"`
}

// SessionCookie настройки cookie, в которой живёт токен сессии.
type SessionCookie struct {
	CookieName   string `yaml:"cookie_name" env-default:"app_session_id"`
	CookieSecure bool   `yaml:"cookie_secure" env:"COOKIE_SECURE"`
	CookieDomain string `yaml:"cookie_domain"`
}

// MercadoPago настройки платёжного провайдера.
type MercadoPago struct {
	BaseURL         string        `yaml:"base_url" env:"MERCADO_PAGO_BASE_URL" env-default:"https://api.mercadopago.com"`
	AccessToken     string        `yaml:"access_token" env:"MERCADO_PAGO_ACCESS_TOKEN"`
	WebhookSecret   string        `yaml:"webhook_secret" env:"MERCADO_PAGO_WEBHOOK_SECRET"`
	WebhookMaxAge   time.Duration `yaml:"webhook_max_age" env-default:"10m"`
	NotificationURL string        `yaml:"notification_url" env:"MERCADO_PAGO_NOTIFICATION_URL"`
	TimeoutProvider time.Duration `yaml:"timeout" env-default:"10s"`
	RetryCount      int           `yaml:"retry_count" env-default:"2"`
	ProductName     string        `yaml:"product_name" env-default:"Plataforma de Conteúdo"`
}

// RabbitMQ настройки брокера. Пустой URL отключает публикацию событий.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries uint64        `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки почтового сервера для notification-sender.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
	SMTPFrom string `yaml:"from" env:"SMTP_FROM"`
	StartTLS bool   `yaml:"starttls" env:"SMTP_STARTTLS" env-default:"true"`
}

// Scheduler настройки фоновой задачи.
type Scheduler struct {
	ExpirySweepSchedule string `yaml:"expiry_sweep_schedule" env:"EXPIRY_SWEEP_SCHEDULE" env-default:"@every 1h"`
}

// RateLimit ограничение запросов к эндпоинтам аутентификации.
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" env-default:"5"`
	Burst             int     `yaml:"burst" env-default:"10"`
}

// MustLoad функция для загрузки конфига. Путь берётся из CONFIG_PATH,
// при отсутствии переменной конфиг собирается только из окружения.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("cannot load .env: %s", err)
	}

	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла path (если задан) и переменных окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConfigured: %t\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"MercadoPago:\n"+
			"  BaseURL: %s\n"+
			"  Configured: %t\n"+
			"RabbitMQConfigured: %t\n",
		c.Env,
		c.StorageConnectionString != "",
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.BaseURL,
		c.AccessToken != "",
		c.RabbitMQURL != "",
	)
}
