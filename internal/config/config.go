package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverMemory   = "memory"

	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
	StorageDriverMinio = "minio"
)

type Config struct {
	AppHost   string         `mapstructure:"host"`
	PublicURL string         `mapstructure:"public_url"`
	DB        DBConfig       `mapstructure:"db"`
	JWT       JWTConfig      `mapstructure:"jwt"`
	Storage   StorageConfig  `mapstructure:"storage"`
	CORS      CORSConfig     `mapstructure:"cors"`
	Log       LogConfig      `mapstructure:"log"`
	Identity  IdentityConfig `mapstructure:"identity"`
}

type DBConfig struct {
	Driver  string `mapstructure:"driver"`
	Source  string `mapstructure:"source"`
	Migrate bool   `mapstructure:"migrate"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

type StorageConfig struct {
	Driver      string        `mapstructure:"driver"`
	Path        string        `mapstructure:"path"`
	Bucket      string        `mapstructure:"bucket"`
	Endpoint    string        `mapstructure:"endpoint"`
	Region      string        `mapstructure:"region"`
	AccessKey   string        `mapstructure:"access_key"`
	SecretKey   string        `mapstructure:"secret_key"`
	UseSSL      bool          `mapstructure:"use_ssl"`
	UploadTTL   time.Duration `mapstructure:"upload_ttl"`
	DownloadTTL time.Duration `mapstructure:"download_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type IdentityConfig struct {
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", ":8080")
	v.SetDefault("public_url", "http://localhost:8080")

	v.SetDefault("db.driver", DBDriverPostgres)
	v.SetDefault("db.source", "")
	v.SetDefault("db.migrate", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_ttl", time.Hour)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)

	v.SetDefault("storage.driver", StorageDriverLocal)
	v.SetDefault("storage.path", "./data/blobs")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.upload_ttl", 15*time.Minute)
	v.SetDefault("storage.download_ttl", 5*time.Minute)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("identity.cache_size", 1024)
	v.SetDefault("identity.cache_ttl", 5*time.Minute)
}

// Load reads settings.yml from the given directories (./configs and /configs
// when none are given), then lets environment variables override it. A .env
// file in the working directory is loaded into the environment first.
func Load(configPaths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if len(configPaths) == 0 {
		configPaths = []string{"./configs", "/configs"}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("settings")
	v.SetConfigType("yml")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("jwt ttls must be positive"))
	}

	switch c.DB.Driver {
	case DBDriverPostgres:
		if c.DB.Source == "" {
			errs = append(errs, errors.New("db.source is required for the postgres driver"))
		}
	case DBDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown db.driver %q", c.DB.Driver))
	}

	switch c.Storage.Driver {
	case StorageDriverLocal:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the local driver"))
		}
	case StorageDriverS3:
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("storage.bucket is required for the s3 driver"))
		}
	case StorageDriverMinio:
		if c.Storage.Bucket == "" || c.Storage.Endpoint == "" || c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			errs = append(errs, errors.New("storage.bucket, endpoint, access_key and secret_key are required for the minio driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Storage.UploadTTL <= 0 || c.Storage.DownloadTTL <= 0 {
		errs = append(errs, errors.New("storage ttls must be positive"))
	}

	if c.Identity.CacheSize <= 0 {
		errs = append(errs, errors.New("identity.cache_size must be positive"))
	}

	return errors.Join(errs...)
}
