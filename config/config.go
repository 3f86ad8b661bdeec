package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config contiene todos los parámetros de configuración leídos de variables de entorno.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"3001"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Proveedor LLM (API compatible con OpenAI)
	AIEndpoint string `envconfig:"AI_ENDPOINT" default:"https://api.openai.com/v1/chat/completions"`
	AIModel    string `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AIAPIKey   string `envconfig:"AI_API_KEY"`

	// Scraping de la Corte Constitucional
	CorteBaseURL         string `envconfig:"CORTE_BASE_URL" default:"https://www.corteconstitucional.gov.co"`
	ScrapeLookbackDays   int    `envconfig:"SCRAPE_LOOKBACK_DAYS" default:"2"`
	ScrapeRequestDelayMs int    `envconfig:"SCRAPE_REQUEST_DELAY_MS" default:"1000"`
	ScrapeMaxRows        int    `envconfig:"SCRAPE_MAX_ROWS" default:"50"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 */6 * * *"`

	// Snapshot local del estado de curación
	SnapshotDir      string `envconfig:"SNAPSHOT_DIR" default:"./data"`
	SnapshotMaxBytes int64  `envconfig:"SNAPSHOT_MAX_BYTES" default:"5242880"`

	S3Key    string `envconfig:"S3_KEY" required:"true"`
	S3Secret string `envconfig:"S3_SECRET" required:"true"`
	S3URL    string `envconfig:"S3_URL" required:"true"`
	S3Region string `envconfig:"S3_REGION" required:"true"`
	S3Bucket string `envconfig:"S3_BUCKET" required:"true"`

	// Fuentes de scraping habilitadas
	EnabledSources string `envconfig:"ENABLED_SOURCES" default:"corte_constitucional"`
}

// DSN devuelve el Data Source Name para la conexión PostgreSQL.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load carga la configuración desde las variables de entorno.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
