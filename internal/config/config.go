package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	HTTPServer  `yaml:"http_server"`
	Salon       Salon  `yaml:"salon"`
	Stripe      Stripe `yaml:"stripe"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type Salon struct {
	Timezone       string        `yaml:"timezone" env-default:"America/Mexico_City"`
	DepositPercent float64       `yaml:"deposit_percent" env-default:"0.20"`
	HoldTTL        time.Duration `yaml:"hold_ttl" env-default:"15m"`
	HorizonDays    int           `yaml:"horizon_days" env-default:"7"`
	SlotMinutes    int           `yaml:"slot_minutes" env-default:"60"`
}

type Stripe struct {
	SecretKey        string        `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret    string        `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	WebhookTolerance time.Duration `yaml:"webhook_tolerance" env-default:"5m"`
	SuccessURL       string        `yaml:"success_url" env-default:"http://localhost:8080/gracias"`
	CancelURL        string        `yaml:"cancel_url" env-default:"http://localhost:8080/pago-cancelado"`
	Currency         string        `yaml:"currency" env-default:"mxn"`
	Timeout          time.Duration `yaml:"timeout" env-default:"10s"`
}

func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}
