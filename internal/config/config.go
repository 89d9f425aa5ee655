package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal      = "local"
	EnvDev        = "dev"
	EnvProduction = "production"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	UserAgent  string     `yaml:"user_agent" env:"USER_AGENT" env-default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Upstream   Upstream   `yaml:"upstream"`
	Relay      Relay      `yaml:"relay"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"90s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Upstream is the third-party metadata API that turns a share link into media URLs.
type Upstream struct {
	Endpoint string        `yaml:"endpoint" env:"UPSTREAM_ENDPOINT" env-default:"https://www.tikwm.com/api/"`
	Timeout  time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT" env-default:"15s"`
}

// Relay bounds the GET /download transfers. AllowPrivateHosts lets the relay
// fetch from loopback, private and link-local addresses.
type Relay struct {
	Timeout           time.Duration `yaml:"timeout" env:"RELAY_TIMEOUT" env-default:"60s"`
	MaxConcurrent     int64         `yaml:"max_concurrent" env:"RELAY_MAX_CONCURRENT" env-default:"8"`
	MaxBytes          int64         `yaml:"max_bytes" env:"RELAY_MAX_BYTES" env-default:"209715200"`
	CacheMaxAge       time.Duration `yaml:"cache_max_age" env:"RELAY_CACHE_MAX_AGE" env-default:"1h"`
	DefaultFilename   string        `yaml:"default_filename" env:"RELAY_DEFAULT_FILENAME" env-default:"tiktok-video.mp4"`
	AllowPrivateHosts bool          `yaml:"allow_private_hosts" env:"RELAY_ALLOW_PRIVATE_HOSTS" env-default:"false"`
}

// Load reads the config file at path, or only the environment when path is empty.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist at path: %s", path)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}
