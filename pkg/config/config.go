package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rahul-codes-hash/microservices/pkg/utils"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTP     `yaml:"http"`
	Postgres PG       `yaml:"postgres"`
	Kafka    Kafka    `yaml:"kafka"`
	Redis    Redis    `yaml:"redis"`
	Services Services `yaml:"services"`
	Pricing  Pricing  `yaml:"pricing"`
	Saga     Saga     `yaml:"saga"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3000"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Services struct {
	CartURL    string `yaml:"cart_url" env:"CART_URL" env-default:"http://localhost:3002"`
	CatalogURL string `yaml:"catalog_url" env:"CATALOG_URL" env-default:"http://localhost:3001"`
}

// Pricing holds the fixed charges applied on top of the line subtotal.
// Amounts are in minor currency units.
type Pricing struct {
	TaxRatePercent int64 `yaml:"tax_rate_percent" env:"TAX_RATE_PERCENT" env-default:"10"`
	ShippingFee    int64 `yaml:"shipping_fee" env:"SHIPPING_FEE" env-default:"500"`
}

type Saga struct {
	Deadline       time.Duration `yaml:"deadline" env:"SAGA_DEADLINE" env-default:"10s"`
	ReservationTTL time.Duration `yaml:"reservation_ttl" env:"RESERVATION_TTL" env-default:"2m"`
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	var cfg Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("error reading config from env: %v", err)
		}

		return &cfg
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
