// Package config содержит структуры конфигурации и загрузчик для всех
// бинарников платформы. Значения читаются из YAML файла, путь к которому
// задает CONFIG_PATH, и могут быть переопределены переменными окружения.
package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	// EnvLocal окружение разработчика.
	EnvLocal = "local"
	// EnvProduction включает Secure для cookie.
	EnvProduction = "production"
)

// Config хранит все настройки приложения.
type Config struct {
	Env                     string `yaml:"env" env:"APP_ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	ContactEmail            string `yaml:"contact_email" env:"CONTACT_US_EMAIL"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwttoken"`
	PasswordReset           `yaml:"password_reset"`
	Razorpay                `yaml:"razorpay"`
	Cloudinary              `yaml:"cloudinary"`
	SMTP                    `yaml:"smtp"`
	RabbitMQ                `yaml:"rabbitmq"`
	Uploads                 `yaml:"uploads"`
	CORS                    `yaml:"cors"`
}

// HTTPServer настройки HTTP сервера API.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection настройки кэша каталога курсов.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"10m"`
}

// JWTToken настройки сессионных токенов.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"168h"`
}

// PasswordReset настройки ссылок восстановления пароля.
type PasswordReset struct {
	ResetTokenTTL time.Duration `yaml:"reset_token_ttl" env-default:"30m"`
	FrontendURL   string        `yaml:"frontend_url" env:"FRONTEND_URL"`
}

// Razorpay настройки клиента платежного шлюза.
type Razorpay struct {
	KeyID         string        `yaml:"key_id" env:"RAZORPAY_KEY_ID"`
	KeySecret     string        `yaml:"key_secret" env:"RAZORPAY_SECRET" env-required:"true"`
	PlanID        string        `yaml:"plan_id" env:"RAZORPAY_PLAN_ID"`
	WebhookSecret string        `yaml:"webhook_secret" env:"RAZORPAY_WEBHOOK_SECRET" env-required:"true"`
	APIURL        string        `yaml:"api_url" env-default:"https://api.razorpay.com/v1"`
	TotalCount    int           `yaml:"total_count" env-default:"12"`
	Timeout       time.Duration `yaml:"timeout" env-default:"10s"`
	MaxRetries    uint64        `yaml:"max_retries" env-default:"3"`
}

// Cloudinary настройки хранилища медиафайлов.
type Cloudinary struct {
	CloudName  string        `yaml:"cloud_name" env:"CLOUDINARY_CLOUD_NAME"`
	APIKey     string        `yaml:"api_key" env:"CLOUDINARY_API_KEY"`
	APISecret  string        `yaml:"api_secret" env:"CLOUDINARY_API_SECRET"`
	Folder     string        `yaml:"folder" env-default:"lms"`
	Timeout    time.Duration `yaml:"timeout" env-default:"60s"`
	MaxRetries uint64        `yaml:"max_retries" env-default:"2"`
}

// SMTP настройки исходящей почты.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USERNAME"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
	SMTPFrom string `yaml:"from" env:"SMTP_FROM_EMAIL"`
}

// RabbitMQ настройки почтовой очереди. Пустой URL означает отправку писем напрямую.
type RabbitMQ struct {
	RabbitMQURL string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange    string        `yaml:"exchange" env-default:"mail"`
	MailQueue   string        `yaml:"mail_queue" env-default:"mail.outgoing"`
	Retries     int           `yaml:"retries" env-default:"5"`
	RetryDelay  time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Uploads настройки временного хранения загружаемых файлов.
type Uploads struct {
	Dir         string `yaml:"dir" env:"UPLOADS_DIR" env-default:"uploads"`
	MaxFileSize int64  `yaml:"max_file_size" env-default:"52428800"`
}

// CORS настройки кросс-доменного доступа для веб-клиента.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

// MustLoad читает конфиг из CONFIG_PATH и завершает процесс при ошибке.
// Переменные из файла .env, если он есть, подгружаются в окружение заранее.
func MustLoad() *Config {
	_ = godotenv.Load()
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает YAML файл по пути path и применяет переменные окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// NewLogger возвращает текстовый логгер для local и JSON логгер для остальных окружений.
func (c *Config) NewLogger() *slog.Logger {
	if c.Env == EnvLocal {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// SecureCookies сообщает, нужен ли флаг Secure для сессионной cookie.
func (c *Config) SecureCookies() bool {
	return c.Env == EnvProduction
}

// QueueMail сообщает, отправляются ли письма через RabbitMQ.
func (c *Config) QueueMail() bool {
	return c.RabbitMQURL != ""
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer: %s (timeout %s, idle %s)\n"+
			"Redis: %s db=%d\n"+
			"TokenTTL: %s ResetTokenTTL: %s\n"+
			"Razorpay: key=%s plan=%s\n"+
			"Cloudinary: cloud=%s folder=%s\n"+
			"SMTP: %s:%s\n"+
			"QueueMail: %t\n",
		c.Env,
		c.AddressHTTP, c.TimeoutHTTP, c.IdleTimeout,
		c.AddressRedis, c.DB,
		c.TokenTTL, c.ResetTokenTTL,
		c.KeyID, c.PlanID,
		c.CloudName, c.Folder,
		c.SMTPHost, c.SMTPPort,
		c.QueueMail(),
	)
}
