package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StorageJSON     = "json"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"

	SessionMemory = "memory"
	SessionRedis  = "redis"
	SessionMongo  = "mongo"
)

type Config struct {
	Env   string `yaml:"env" env:"ENV" env-default:"local"`
	Debug bool   `yaml:"debug" env:"DEBUG_MODE" env-default:"false"`
	Bot   struct {
		OwnerID        string `yaml:"owner_id" env:"OWNER_ID" env-required:"true"`
		Password       string `yaml:"password" env:"BOT_PASSWORD" env-required:"true"`
		StateTimeoutMs int64  `yaml:"state_timeout_ms" env:"USER_STATE_TIMEOUT" env-default:"300000"`
		StorageGroupID string `yaml:"storage_group" env:"STORAGE_GROUP_ID" env-default:""`
		ArchiveGroupID string `yaml:"archive_group" env:"ARCHIVE_GROUP_ID" env-default:""`
	} `yaml:"bot"`
	WhatsApp struct {
		DatabaseURL string `yaml:"database_url" env:"WHATSAPP_DATABASE_URL" env-default:""`
		PairPhone   string `yaml:"pair_phone" env:"WHATSAPP_PAIR_PHONE" env-default:""`
		LogLevel    string `yaml:"log_level" env:"WHATSAPP_LOG_LEVEL" env-default:"WARN"`
	} `yaml:"whatsapp"`
	AI struct {
		Provider   string  `yaml:"provider" env:"AI_PROVIDER" env-default:"gemini"`
		GeminiKey  string  `yaml:"gemini_key" env:"GEMINI_API_KEY" env-default:""`
		ApiKey     string  `yaml:"api_key" env:"AI_API_KEY" env-default:""`
		BaseURL    string  `yaml:"base_url" env:"AI_BASE_URL" env-default:""`
		Model      string  `yaml:"model" env:"AI_MODEL" env-default:""`
		RatePerMin float64 `yaml:"rate_per_min" env:"AI_RATE_PER_MIN" env-default:"30"`
	} `yaml:"ai"`
	Storage struct {
		Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"json"`
		DataDir     string `yaml:"data_dir" env:"DATA_DIR" env-default:"data"`
		DatabaseURL string `yaml:"database_url" env:"DATABASE_URL" env-default:""`
		BlobDir     string `yaml:"blob_dir" env:"BLOB_DIR" env-default:"data/files"`
	} `yaml:"storage"`
	Session struct {
		Driver   string `yaml:"driver" env:"SESSION_DRIVER" env-default:"memory"`
		RedisURL string `yaml:"redis_url" env:"REDIS_URL" env-default:""`
	} `yaml:"session"`
	Mongo struct {
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"lecturebot"`
	} `yaml:"mongo"`
	Folders struct {
		Provider       string        `yaml:"provider" env:"FOLDERS_PROVIDER" env-default:""`
		GitHubToken    string        `yaml:"github_token" env:"GITHUB_TOKEN" env-default:""`
		GitHubOwner    string        `yaml:"github_owner" env:"GITHUB_OWNER" env-default:""`
		GitHubRepo     string        `yaml:"github_repo" env:"GITHUB_REPO" env-default:""`
		GitHubBranch   string        `yaml:"github_branch" env:"GITHUB_BRANCH" env-default:""`
		DriveCreds     string        `yaml:"drive_credentials" env:"DRIVE_CREDENTIALS_FILE" env-default:""`
		DriveParentID  string        `yaml:"drive_parent" env:"DRIVE_PARENT_ID" env-default:""`
		ReconcileEvery time.Duration `yaml:"reconcile_every" env:"FOLDERS_RECONCILE_EVERY" env-default:"10m"`
	} `yaml:"folders"`
	Export struct {
		FontPath string `yaml:"font_path" env:"EXPORT_FONT_PATH" env-default:""`
	} `yaml:"export"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId int64  `yaml:"admin_id" env:"TELEGRAM_ADMIN_ID" env-default:"0"`
		BotName string `yaml:"bot_name" env:"TELEGRAM_BOT_NAME" env-default:"LectureBotAlerts"`
		Enabled bool   `yaml:"enabled" env:"TELEGRAM_ENABLED" env-default:"false"`
	} `yaml:"telegram"`
	Listen struct {
		Enabled bool   `yaml:"enabled" env:"LISTEN_ENABLED" env-default:"true"`
		BindIP  string `yaml:"bind_ip" env:"LISTEN_BIND_IP" env-default:"127.0.0.1"`
		Port    string `yaml:"port" env:"LISTEN_PORT" env-default:"9100"`
	} `yaml:"listen"`
}

// StateTimeout is the idle period after which a conversation is dropped.
func (c *Config) StateTimeout() time.Duration {
	return time.Duration(c.Bot.StateTimeoutMs) * time.Millisecond
}

// WhatsAppDatabaseURL falls back to the storage database when no dedicated one is set.
func (c *Config) WhatsAppDatabaseURL() string {
	if c.WhatsApp.DatabaseURL != "" {
		return c.WhatsApp.DatabaseURL
	}
	return c.Storage.DatabaseURL
}

// AIKey returns the key of the selected provider.
func (c *Config) AIKey() string {
	if strings.EqualFold(c.AI.Provider, "gemini") && c.AI.GeminiKey != "" {
		return c.AI.GeminiKey
	}
	if c.AI.ApiKey != "" {
		return c.AI.ApiKey
	}
	return c.AI.GeminiKey
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	var errs []error
	if c.Bot.StateTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("USER_STATE_TIMEOUT must be positive"))
	}
	switch c.Storage.Driver {
	case StorageJSON:
		if c.Storage.DataDir == "" {
			errs = append(errs, fmt.Errorf("DATA_DIR is required for the json storage"))
		}
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for the postgres storage"))
		}
	case StorageMongo:
		if c.Mongo.Host == "" {
			errs = append(errs, fmt.Errorf("MONGO_HOST is required for the mongo storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	switch c.Session.Driver {
	case SessionMemory, SessionMongo:
	case SessionRedis:
		if c.Session.RedisURL == "" {
			errs = append(errs, fmt.Errorf("REDIS_URL is required for the redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session driver %q", c.Session.Driver))
	}
	if c.WhatsAppDatabaseURL() == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL or WHATSAPP_DATABASE_URL is required for the whatsapp device store"))
	}
	if c.Folders.Provider == "github" && (c.Folders.GitHubToken == "" || c.Folders.GitHubOwner == "" || c.Folders.GitHubRepo == "") {
		errs = append(errs, fmt.Errorf("GITHUB_TOKEN, GITHUB_OWNER and GITHUB_REPO are required for github folders"))
	}
	return errors.Join(errs...)
}

var instance *Config
var once sync.Once

// MustLoad reads the yaml file at path when it exists, otherwise the environment only.
func MustLoad(path string) *Config {
	once.Do(func() {
		_ = godotenv.Load()

		conf, err := Load(path)
		if err != nil {
			log.Fatal(err)
		}
		instance = conf
	})
	return instance
}

func Load(path string) (*Config, error) {
	conf := &Config{}
	var err error
	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		err = cleanenv.ReadConfig(path, conf)
	} else {
		err = cleanenv.ReadEnv(conf)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("%s; %s", err, desc)
	}
	if err = conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return conf, nil
}
