package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// ErrHelp is returned by ParseFlags when -h/--help was requested.
var ErrHelp = pflag.ErrHelp

type Server struct {
	Port            int
	MaxClients      int
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	MetricsAddr     string
}

type DB struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Avatar struct {
	UploadDir string
	MaxSize   int64
}

type MinIO struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
	Region     string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Auth struct {
	BcryptCost      int
	JWTSecretKey    string
	SessionTokenTTL time.Duration
}

type Log struct {
	Level  string
	Pretty bool
}

type Config struct {
	Server Server
	DB     DB
	Avatar Avatar
	MinIO  MinIO
	Redis  Redis
	Auth   Auth
	Log    Log
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return duration
}

func LoadServer() Server {
	return Server{
		Port:            getEnvAsInt("SERVER_PORT", 8080),
		MaxClients:      getEnvAsInt("MAX_CLIENTS", 100),
		ReadTimeout:     parseDuration(getEnv("READ_TIMEOUT", "60s"), 60*time.Second),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		MetricsAddr:     getEnv("METRICS_ADDR", ""),
	}
}

func LoadDB() DB {
	return DB{
		URL:             getEnv("DATABASE_URL", "unisocial.db"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
	}
}

func LoadAvatar() Avatar {
	return Avatar{
		UploadDir: getEnv("UPLOAD_DIR", "uploads/avatars/"),
		MaxSize:   getEnvAsInt64("AVATAR_MAX_SIZE", 5*1024*1024),
	}
}

func LoadMinIO() MinIO {
	return MinIO{
		Endpoint:   getEnv("MINIO_ENDPOINT", ""),
		AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		BucketName: getEnv("MINIO_BUCKET_NAME", "unisocial"),
		UseSSL:     getEnvBool("MINIO_USE_SSL", false),
		Region:     getEnv("MINIO_REGION", "us-east-1"),
	}
}

func LoadRedis() Redis {
	return Redis{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("REDIS_DB", 0),
	}
}

func LoadAuth() Auth {
	return Auth{
		BcryptCost:      getEnvAsInt("BCRYPT_COST", 12),
		JWTSecretKey:    getEnv("JWT_SECRET_KEY", ""),
		SessionTokenTTL: parseDuration(getEnv("SESSION_TOKEN_TTL", "168h"), 168*time.Hour),
	}
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Debug().Msg(".env файл не найден, используются переменные окружения")
	}

	return &Config{
		Server: LoadServer(),
		DB:     LoadDB(),
		Avatar: LoadAvatar(),
		MinIO:  LoadMinIO(),
		Redis:  LoadRedis(),
		Auth:   LoadAuth(),
		Log: Log{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
	}
}

// ParseFlags applies command line overrides on top of cfg.
func ParseFlags(cfg *Config, name string, args []string) error {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.IntVarP(&cfg.Server.Port, "port", "p", cfg.Server.Port, "Server port")
	fs.StringVarP(&cfg.DB.URL, "database", "d", cfg.DB.URL, "Database URL or SQLite file path")
	fs.IntVarP(&cfg.Server.MaxClients, "max-clients", "m", cfg.Server.MaxClients, "Maximum concurrent clients")
	fs.StringVar(&cfg.Avatar.UploadDir, "upload-dir", cfg.Avatar.UploadDir, "Avatar upload directory")
	fs.StringVar(&cfg.Server.MetricsAddr, "metrics-addr", cfg.Server.MetricsAddr, "Admin HTTP address for /health and /metrics (empty disables)")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("некорректный порт: %d", c.Server.Port)
	}
	if c.Server.MaxClients <= 0 {
		return fmt.Errorf("max-clients должен быть больше нуля: %d", c.Server.MaxClients)
	}
	if c.DB.URL == "" {
		return errors.New("не указан адрес базы данных")
	}
	if c.Avatar.MaxSize <= 0 {
		return errors.New("некорректный максимальный размер аватара")
	}
	return nil
}
