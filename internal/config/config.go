// Package config предоставляет структуры и функции для загрузки конфигурации портала.
//
// Источники в порядке приоритета: переменные окружения, YAML-файл из CONFIG_PATH
// (если задан), значения по умолчанию. Файл .env, если он есть, загружается в окружение заранее.
package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MongoDatabase           string `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"portal"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	Session                 `yaml:"session"`
	RabbitMQ                `yaml:"rabbitmq"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	Host        string        `yaml:"host" env:"HTTP_HOST" env-default:""`
	Port        string        `yaml:"port" env:"PORT" env-default:"3000"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Address возвращает адрес для net/http в виде host:port.
func (h HTTPServer) Address() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// RedisConnection структура для настройки подключения к redis.
// Пустой AddressRedis означает хранение сессий в памяти процесса.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// Session структура для настройки cookie-сессий.
type Session struct {
	Secret     string        `yaml:"secret" env:"SESSION_SECRET" env-required:"true"`
	TTL        time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"portal_session"`
	Secure     bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
}

// RabbitMQ структура для публикации событий учётных записей.
// Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL      string `yaml:"url" env:"RABBITMQ_URL"`
	Exchange string `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"accounts"`
}

// Load читает конфигурацию. Ошибка возвращается, если файл из CONFIG_PATH
// не найден или не заданы обязательные параметры.
func Load() (*Config, error) {
	const op = "config.Load"

	// .env необязателен
	_ = godotenv.Load()

	var cfg Config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if cfg.Secret == "" {
		return nil, fmt.Errorf("%s: session secret is empty", op)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%s: session ttl must be positive", op)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"Session:\n"+
			"  CookieName: %s\n"+
			"  TTL: %s\n"+
			"  Secure: %t\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"  Exchange: %s\n",
		c.Env,
		redact(c.StorageConnectionString),
		c.Address(),
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		c.DB,
		c.CookieName,
		c.TTL,
		c.Secure,
		c.RabbitMQ.URL != "",
		c.Exchange,
	)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
