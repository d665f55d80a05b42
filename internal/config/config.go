package config

import (
	"errors"
	"strings"

	"github.com/caarlos0/env/v9"
)

const (
	BackendSQL       = "sql"
	BackendFirestore = "firestore"

	AuthFirebase = "firebase"
	AuthHeader   = "header"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DataBackend string `env:"DATA_BACKEND" envDefault:"sql"`

	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"`
	DatabaseURL            string `env:"DATABASE_URL"`
	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBHost                 string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	AuthMode          string `env:"AUTH_MODE" envDefault:"firebase"`
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	CredentialsFile   string `env:"FIREBASE_CREDENTIALS_FILE"`
	StorageBucket     string `env:"STORAGE_BUCKET"`

	RedisURL string `env:"REDIS_URL"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	CORSOriginSuffixes []string `env:"CORS_ORIGIN_SUFFIXES" envSeparator:"," envDefault:"vercel.app"`

	GitSHA    string `env:"GIT_SHA" envDefault:"dev"`
	BuildTime string `env:"BUILD_TIME"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that only matter for the selected backend.
func (c *Config) Validate() error {
	c.DataBackend = strings.ToLower(strings.TrimSpace(c.DataBackend))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.AuthMode = strings.ToLower(strings.TrimSpace(c.AuthMode))

	switch c.DataBackend {
	case BackendSQL:
		switch c.DBDriver {
		case "mysql":
			if c.DBUser == "" || c.DBName == "" || (c.DBHost == "" && c.InstanceConnectionName == "") {
				return errors.New("DB_USER, DB_HOST and DB_NAME are required for mysql")
			}
		case "postgres":
			if c.DatabaseURL == "" && (c.DBUser == "" || c.DBHost == "" || c.DBName == "") {
				return errors.New("DATABASE_URL or DB_USER/DB_HOST/DB_NAME are required for postgres")
			}
		default:
			return errors.New("DB_DRIVER must be mysql or postgres")
		}
	case BackendFirestore:
		if c.FirebaseProjectID == "" && c.CredentialsFile == "" {
			return errors.New("FIREBASE_PROJECT_ID or FIREBASE_CREDENTIALS_FILE is required for firestore")
		}
	default:
		return errors.New("DATA_BACKEND must be sql or firestore")
	}

	switch c.AuthMode {
	case AuthFirebase, AuthHeader:
	default:
		return errors.New("AUTH_MODE must be firebase or header")
	}
	return nil
}
