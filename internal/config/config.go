package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		UseTLS       bool   `yaml:"use_tls"`
	} `yaml:"email"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // минуты
	} `yaml:"jwt"`

	Verification struct {
		CodeTTL int `yaml:"code_ttl"` // минуты, по умолчанию 10
	} `yaml:"verification"`

	Storage struct {
		Type       string `yaml:"type"`      // local, s3, cloudflare_r2
		BasePath   string `yaml:"base_path"` // For local storage
		BaseURL    string `yaml:"base_url"`  // Public URL base
		Bucket     string `yaml:"bucket"`
		Region     string `yaml:"region"`
		AccessKey  string `yaml:"access_key"`
		SecretKey  string `yaml:"secret_key"`
		Endpoint   string `yaml:"endpoint"` // For R2 or custom S3
		PublicRead bool   `yaml:"public_read"`
	} `yaml:"storage"`

	Upload struct {
		MaxDocumentSize int64    `yaml:"max_document_size"` // bytes, 20MB по умолчанию
		AllowedDocTypes []string `yaml:"allowed_doc_types"` // MIME types
	} `yaml:"upload"`

	Billing struct {
		APIKey        string `yaml:"api_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		BaseURL       string `yaml:"base_url"`
		FrontendURL   string `yaml:"frontend_url"`

		PriceIDs map[string]string `yaml:"price_ids"` // plan name -> price id
	} `yaml:"billing"`

	Calendar struct {
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		TimeZone string `yaml:"time_zone"`
	} `yaml:"calendar"`

	MediaHost struct {
		BaseURL     string `yaml:"base_url"`
		AccessToken string `yaml:"access_token"`
	} `yaml:"media_host"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	RateLimit struct {
		LoginLimit    int `yaml:"login_limit"`    // запросов на окно
		WindowSeconds int `yaml:"window_seconds"` // размер окна
	} `yaml:"rate_limit"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	// Переменные окружения имеют приоритет (режим теста/контейнера)
	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Email.SMTPHost = "smtp.test.com"
	cfg.Email.SMTPPort = 587
	cfg.Email.FromEmail = "no-reply@clientdesk.io"

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = "/api/v1/files"

	cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.JWT.TTL <= 0 {
		cfg.JWT.TTL = 60
	}
	if cfg.Verification.CodeTTL <= 0 {
		cfg.Verification.CodeTTL = 10
	}
	if cfg.Upload.MaxDocumentSize <= 0 {
		cfg.Upload.MaxDocumentSize = 20 * 1024 * 1024 // 20MB
	}
	if len(cfg.Upload.AllowedDocTypes) == 0 {
		cfg.Upload.AllowedDocTypes = []string{
			"application/pdf",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		}
	}
	if cfg.RateLimit.LoginLimit <= 0 {
		cfg.RateLimit.LoginLimit = 100
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		cfg.RateLimit.WindowSeconds = 15 * 60
	}
	if cfg.Billing.BaseURL == "" {
		cfg.Billing.BaseURL = "https://api.stripe.com"
	}
	if cfg.Calendar.BaseURL == "" {
		cfg.Calendar.BaseURL = "https://api.cal.com/v1"
	}
	if cfg.Calendar.TimeZone == "" {
		cfg.Calendar.TimeZone = "UTC"
	}
	if cfg.MediaHost.BaseURL == "" {
		cfg.MediaHost.BaseURL = "https://api.vimeo.com"
	}
	if len(cfg.Billing.PriceIDs) == 0 {
		cfg.Billing.PriceIDs = map[string]string{
			"Basic":        "price_basic_monthly",
			"Professional": "price_professional_monthly",
			"Enterprise":   "price_enterprise_monthly",
		}
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
