// Ininicializing common application configuration
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Import   ImportConfig   `mapstructure:"import"`
	Image    ImageConfig    `mapstructure:"image"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"app_version"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
}

type FetchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRedirects  int           `mapstructure:"max_redirects"`
	UserAgent     string        `mapstructure:"user_agent"`
	MaxPageBytes  int64         `mapstructure:"max_page_bytes"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
}

type ImportConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxCandidates int           `mapstructure:"max_candidates"`
	Folder        string        `mapstructure:"folder"`
}

type ImageConfig struct {
	Format    string `mapstructure:"format"`
	Quality   int    `mapstructure:"quality"`
	MaxWidth  int    `mapstructure:"max_width"`
	MaxHeight int    `mapstructure:"max_height"`
	MaxBytes  int64  `mapstructure:"max_bytes"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver"` // local или s3
	BasePath      string `mapstructure:"base_path"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoadConfig reads ./config/config.yaml. A missing file is not an error,
// defaults and environment variables (SERVER_PORT, STORAGE_DRIVER, ...) still apply.
func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()
	setDefaults(viperInstance)

	err := viperInstance.ReadInConfig()

	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 90*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	// Fetch defaults
	v.SetDefault("fetch.timeout", 10*time.Second)
	v.SetDefault("fetch.max_redirects", 5)
	v.SetDefault("fetch.user_agent", "course-import/1.0 (+https://github.com/ds124wfegd/course-import)")
	v.SetDefault("fetch.max_page_bytes", 5*1024*1024)
	v.SetDefault("fetch.max_image_bytes", 10*1024*1024)

	// Import defaults
	v.SetDefault("import.timeout", 60*time.Second)
	v.SetDefault("import.max_candidates", 5)
	v.SetDefault("import.folder", "imports")

	// Image defaults
	v.SetDefault("image.format", "jpeg")
	v.SetDefault("image.quality", 85)
	v.SetDefault("image.max_width", 1600)
	v.SetDefault("image.max_height", 1600)
	v.SetDefault("image.max_bytes", 10*1024*1024)

	// Storage defaults
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.base_path", "./storage")
	v.SetDefault("storage.public_base_url", "http://localhost:8080/storage")

	// Kafka defaults
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "course-imports")

	// Database defaults
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "course_import")
	v.SetDefault("database.dbname", "course_import")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
}
