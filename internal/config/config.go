package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"marketplace_sync_v1_202610/pkg/database"
	"marketplace_sync_v1_202610/pkg/logger"
	"marketplace_sync_v1_202610/pkg/marketplace"
)

// EnvPrefix 环境变量前缀，如 MSYNC_UPSTREAM_BASE_URL
const EnvPrefix = "MSYNC"

var (
	ErrMissingBaseURL   = errors.New("upstream.base_url 未配置")
	ErrInvalidPageSize  = errors.New("upstream.page_size 必须在 1-250 之间")
	ErrInvalidWorkers   = errors.New("sync.concurrency 必须大于 0")
	ErrMissingCronSpec  = errors.New("scheduler.cron 未配置")
	ErrMissingDatabase  = errors.New("database.url 或 database.host 未配置")
	ErrInvalidRetryBase = errors.New("sync.retry_initial_interval 必须大于 0")
)

// Config 应用配置，构造时注入各组件
type Config struct {
	App       AppConfig
	Log       logger.Config
	Database  database.Config
	Upstream  marketplace.Config
	Sync      SyncConfig
	Scheduler SchedulerConfig
	HTTP      HTTPConfig
}

// AppConfig 应用基础配置
type AppConfig struct {
	Env  string
	Port string
}

// SyncConfig 同步引擎配置
type SyncConfig struct {
	PageDelay            time.Duration // 同一店铺两次翻页之间的间隔
	Concurrency          int           // 并行同步的店铺数，1 为顺序执行
	RunTimeout           time.Duration // 单次运行截止时间，0 为不限制
	MaxRetries           int           // 单页拉取失败后的最大重试次数
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	ErrorPreview         int // 摘要中每个店铺展示的错误条数
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	Enabled bool
	Cron    string // 带秒的 cron 表达式
}

// HTTPConfig 管理接口配置
type HTTPConfig struct {
	SyncCooldown time.Duration // 单店铺手动同步冷却时间
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{Env: "development", Port: "8080"},
		Log: logger.DefaultConfig(),
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "marketplace_sync",
			SSLMode:         "disable",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
			LogLevel:        "warn",
			SlowThreshold:   200 * time.Millisecond,
		},
		Upstream: marketplace.Config{
			BaseURL:             "https://www.faire.com/external-api/v2",
			PageSize:            marketplace.DefaultPageSize,
			Timeout:             30 * time.Second,
			AppCredentialHeader: "X-FAIRE-APP-CREDENTIALS",
			AccessTokenHeader:   "X-FAIRE-OAUTH-ACCESS-TOKEN",
			UserAgent:           "marketplace-sync/1.0",
		},
		Sync: SyncConfig{
			PageDelay:            300 * time.Millisecond,
			Concurrency:          1,
			RunTimeout:           30 * time.Minute,
			MaxRetries:           3,
			RetryInitialInterval: 500 * time.Millisecond,
			RetryMaxInterval:     10 * time.Second,
			ErrorPreview:         5,
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
			Cron:    "0 */30 * * * *", // 每 30 分钟
		},
		HTTP: HTTPConfig{
			SyncCooldown: 5 * time.Minute,
		},
	}
}

// Load 加载配置
// 优先级（高到低）：环境变量 MSYNC_* > .env > config.toml > 默认值
func Load(paths ...string) (*Config, error) {
	// .env 不存在不是错误
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	if len(paths) == 0 {
		paths = []string{".", "/etc/marketplace-sync"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("app.env", d.App.Env)
	v.SetDefault("app.port", d.App.Port)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", d.Database.DBName)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("database.log_level", d.Database.LogLevel)
	v.SetDefault("database.slow_threshold", d.Database.SlowThreshold)

	v.SetDefault("upstream.base_url", d.Upstream.BaseURL)
	v.SetDefault("upstream.page_size", d.Upstream.PageSize)
	v.SetDefault("upstream.timeout", d.Upstream.Timeout)
	v.SetDefault("upstream.app_credential_header", d.Upstream.AppCredentialHeader)
	v.SetDefault("upstream.access_token_header", d.Upstream.AccessTokenHeader)
	v.SetDefault("upstream.user_agent", d.Upstream.UserAgent)
	v.SetDefault("upstream.debug", false)

	v.SetDefault("sync.page_delay", d.Sync.PageDelay)
	v.SetDefault("sync.concurrency", d.Sync.Concurrency)
	v.SetDefault("sync.run_timeout", d.Sync.RunTimeout)
	v.SetDefault("sync.max_retries", d.Sync.MaxRetries)
	v.SetDefault("sync.retry_initial_interval", d.Sync.RetryInitialInterval)
	v.SetDefault("sync.retry_max_interval", d.Sync.RetryMaxInterval)
	v.SetDefault("sync.error_preview", d.Sync.ErrorPreview)

	v.SetDefault("scheduler.enabled", d.Scheduler.Enabled)
	v.SetDefault("scheduler.cron", d.Scheduler.Cron)

	v.SetDefault("http.sync_cooldown", d.HTTP.SyncCooldown)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: logger.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: database.Config{
			URL:             v.GetString("database.url"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Upstream: marketplace.Config{
			BaseURL:             v.GetString("upstream.base_url"),
			PageSize:            v.GetInt("upstream.page_size"),
			Timeout:             v.GetDuration("upstream.timeout"),
			AppCredentialHeader: v.GetString("upstream.app_credential_header"),
			AccessTokenHeader:   v.GetString("upstream.access_token_header"),
			UserAgent:           v.GetString("upstream.user_agent"),
			Debug:               v.GetBool("upstream.debug"),
		},
		Sync: SyncConfig{
			PageDelay:            v.GetDuration("sync.page_delay"),
			Concurrency:          v.GetInt("sync.concurrency"),
			RunTimeout:           v.GetDuration("sync.run_timeout"),
			MaxRetries:           v.GetInt("sync.max_retries"),
			RetryInitialInterval: v.GetDuration("sync.retry_initial_interval"),
			RetryMaxInterval:     v.GetDuration("sync.retry_max_interval"),
			ErrorPreview:         v.GetInt("sync.error_preview"),
		},
		Scheduler: SchedulerConfig{
			Enabled: v.GetBool("scheduler.enabled"),
			Cron:    v.GetString("scheduler.cron"),
		},
		HTTP: HTTPConfig{
			SyncCooldown: v.GetDuration("http.sync_cooldown"),
		},
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return ErrMissingBaseURL
	}
	if c.Upstream.PageSize < 1 || c.Upstream.PageSize > 250 {
		return ErrInvalidPageSize
	}
	if c.Sync.Concurrency < 1 {
		return ErrInvalidWorkers
	}
	if c.Sync.MaxRetries > 0 && c.Sync.RetryInitialInterval <= 0 {
		return ErrInvalidRetryBase
	}
	if c.Scheduler.Enabled && strings.TrimSpace(c.Scheduler.Cron) == "" {
		return ErrMissingCronSpec
	}
	if c.Database.URL == "" && c.Database.Host == "" {
		return ErrMissingDatabase
	}
	return nil
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
