package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration for the server, the CLI cart and the
// reconcile worker. Values come from an optional YAML file and are then
// overridden by environment variables (a local .env is loaded first).
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	DB          DB     `yaml:"db"`

	JWTSecret       string `yaml:"jwt_secret"`
	APIKey          string `yaml:"api_key"`
	SuperAdminEmail string `yaml:"super_admin_email"`

	FirebaseCredentialsJSON string `yaml:"firebase_credentials_json"`
	FirebaseProjectID       string `yaml:"firebase_project_id"`

	Paystack Paystack `yaml:"paystack"`

	UploadDir     string `yaml:"upload_dir"`
	BackupDir     string `yaml:"backup_dir"`
	PublicBaseURL string `yaml:"public_base_url"`

	Temporal Temporal `yaml:"temporal"`

	CartSyncTimeout time.Duration `yaml:"cart_sync_timeout"`
	AllowOrigins    []string      `yaml:"allow_origins"`
}

type DB struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type Paystack struct {
	SecretKey   string `yaml:"secret_key"`
	BaseURL     string `yaml:"base_url"`
	CallbackURL string `yaml:"callback_url"`
	Currency    string `yaml:"currency"`
}

type Temporal struct {
	HostPort  string `yaml:"host_port"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:          "8080",
		UploadDir:     "/var/www/storefront/uploads",
		BackupDir:     "/var/www/storefront/backup/uploads",
		PublicBaseURL: "",
		Paystack: Paystack{
			BaseURL:  "https://api.paystack.co",
			Currency: "NGN",
		},
		Temporal: Temporal{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "storefront-reconcile",
		},
		CartSyncTimeout: 10 * time.Second,
		AllowOrigins:    []string{"*"},
	}
}

// Load reads .env, then the YAML file named by STOREFRONT_CONFIG (if any),
// then environment variables.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("STOREFRONT_CONFIG"))
}

// LoadFrom is Load with an explicit YAML path; "" means no file. Variables
// from .env never override ones already set.
func LoadFrom(path string) (Config, error) {
	_ = godotenv.Load()
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.DB.Host, "DB_HOST")
	setString(&c.DB.Port, "DB_PORT")
	setString(&c.DB.User, "DB_USER")
	setString(&c.DB.Password, "DB_PASSWORD")
	setString(&c.DB.Name, "DB_NAME")

	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.APIKey, "COST_API_KEY")
	setString(&c.SuperAdminEmail, "SUPER_ADMIN_EMAIL")
	setString(&c.FirebaseCredentialsJSON, "FIREBASE_CREDENTIALS_JSON")
	setString(&c.FirebaseProjectID, "FIREBASE_PROJECT_ID")

	setString(&c.Paystack.SecretKey, "PAYSTACK_SECRET_KEY")
	setString(&c.Paystack.BaseURL, "PAYSTACK_BASE_URL")
	setString(&c.Paystack.CallbackURL, "PAYSTACK_CALLBACK_URL")
	setString(&c.Paystack.Currency, "CURRENCY")

	setString(&c.UploadDir, "UPLOAD_DIR")
	setString(&c.BackupDir, "BACKUP_DIR")
	setString(&c.PublicBaseURL, "PUBLIC_BASE_URL")

	setString(&c.Temporal.HostPort, "TEMPORAL_HOST")
	setString(&c.Temporal.Namespace, "TEMPORAL_NAMESPACE")
	setString(&c.Temporal.TaskQueue, "TEMPORAL_TASK_QUEUE")

	if v := os.Getenv("CART_SYNC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CART_SYNC_TIMEOUT: %w", err)
		}
		c.CartSyncTimeout = d
	}
	return nil
}

// DSN returns DATABASE_URL or a DSN built from the DB_* parts.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DB.Host, c.DB.User, c.DB.Password, c.DB.Name, c.DB.Port,
	)
}

// GetEnv returns the environment value for key or def.
func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetEnvInt is GetEnv for integers; unparsable values fall back to def.
func GetEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
