package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API          *APIConfig          `mapstructure:"api"`
	Gin          *GinConfig          `mapstructure:"gin"`
	Database     *DatabaseConfig     `mapstructure:"database"`
	Postgres     *PostgresConfig     `mapstructure:"postgres"`
	Push         *PushConfig         `mapstructure:"push"`
	Kafka        *KafkaConfig        `mapstructure:"kafka"`
	Storage      *StorageConfig      `mapstructure:"storage"`
	Otp          *OtpConfig          `mapstructure:"otp"`
	Lifecycle    *LifecycleConfig    `mapstructure:"lifecycle"`
	Notification *NotificationConfig `mapstructure:"notification"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	Host               string   `mapstructure:"host"`
	Port               string   `mapstructure:"port"`
	BaseURL            string   `mapstructure:"base_url"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the connection string understood by the pgx driver.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.DB, c.Port, c.SSLMode)
}

type PushConfig struct {
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Subscriber      string `mapstructure:"subscriber"`
	TTL             int    `mapstructure:"ttl"`
}

func (c *PushConfig) Enabled() bool {
	return c != nil && c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func (c *KafkaConfig) Enabled() bool {
	return c != nil && len(c.Brokers) > 0 && c.Topic != ""
}

const (
	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"
)

type StorageConfig struct {
	Driver        string `mapstructure:"driver"`
	LocalDir      string `mapstructure:"local_dir"`
	PublicPath    string `mapstructure:"public_path"`
	CloudinaryURL string `mapstructure:"cloudinary_url"`
	Folder        string `mapstructure:"folder"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
}

type OtpConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	Issuer      string        `mapstructure:"issuer"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type LifecycleConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type NotificationConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "/api/v1")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.sqlite_path", "volunteerhub.db")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("push.subscriber", "admin@volunteerhub.local")
	v.SetDefault("push.ttl", 60)
	v.SetDefault("kafka.topic", "user.otp")
	v.SetDefault("storage.driver", StorageLocal)
	v.SetDefault("storage.local_dir", "uploads")
	v.SetDefault("storage.public_path", "/uploads")
	v.SetDefault("storage.folder", "volunteerhub")
	v.SetDefault("storage.max_upload_size", 5<<20)
	v.SetDefault("otp.ttl", 5*time.Minute)
	v.SetDefault("otp.issuer", "VolunteerHub")
	v.SetDefault("otp.max_attempts", 5)
	v.SetDefault("lifecycle.sweep_interval", time.Minute)
	v.SetDefault("notification.workers", 4)
	v.SetDefault("notification.queue_size", 256)
}

// Load reads the yaml file at path, overlays environment variables and
// keeps watching the file for changes.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed, restart to apply",
			zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})
	v.WatchConfig()

	return conf, nil
}
