package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Venue     VenueConfig     `mapstructure:"venue"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// VenueConfig 描述期货交易场所的接入信息。
// APIKey 为只读接口的静态凭证；PrivateKey / PrivateKeyPath 提供
// Ed25519 签名私钥，仅用于需要签名的变更类请求。
type VenueConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	PrivateKey     string        `mapstructure:"private_key"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RecvWindow     int64         `mapstructure:"recv_window"`
}

// ExchangeConfig 描述行情数据源（仅用于扫描模式的市场摘要）。
type ExchangeConfig struct {
	Name       string      `mapstructure:"name"`
	Markets    []string    `mapstructure:"markets"`
	APIKey     string      `mapstructure:"api_key"`
	APISecret  string      `mapstructure:"api_secret"`
	UseSandbox bool        `mapstructure:"use_sandbox"`
	Retry      RetryConfig `mapstructure:"retry"`
}

// RetryConfig 统一控制重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// OpenAIConfig 描述大模型调用参数。
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ExecutionConfig 控制下单行为。DryRun 为真时流程止步于费用预估。
type ExecutionConfig struct {
	DryRun bool `mapstructure:"dry_run"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Venue.BaseURL == "" {
		err = multierr.Append(err, errors.New("venue.base_url 不能为空"))
	} else if !strings.HasPrefix(c.Venue.BaseURL, "http://") && !strings.HasPrefix(c.Venue.BaseURL, "https://") {
		err = multierr.Append(err, errors.New("venue.base_url 必须为 http/https 地址"))
	}
	if c.Venue.APIKey == "" {
		err = multierr.Append(err, errors.New("venue.api_key 不能为空"))
	}
	if c.Venue.PrivateKey == "" && c.Venue.PrivateKeyPath == "" {
		err = multierr.Append(err, errors.New("venue.private_key 与 venue.private_key_path 至少配置一个"))
	}
	if c.Venue.Timeout <= 0 {
		err = multierr.Append(err, errors.New("venue.timeout 必须大于0"))
	}
	if c.Venue.RecvWindow <= 0 {
		err = multierr.Append(err, errors.New("venue.recv_window 必须大于0"))
	}
	if c.Exchange.Name == "" {
		err = multierr.Append(err, errors.New("exchange.name 不能为空"))
	}
	if len(c.Exchange.Markets) == 0 {
		err = multierr.Append(err, errors.New("exchange.markets 至少包含一个交易对"))
	}
	if c.Exchange.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("exchange.retry.max_attempts 必须大于0"))
	}
	if c.Exchange.Retry.MinDelay <= 0 || c.Exchange.Retry.MaxDelay <= 0 {
		err = multierr.Append(err, errors.New("exchange.retry.delay 必须为正"))
	}
	if c.Exchange.Retry.MinDelay > c.Exchange.Retry.MaxDelay {
		err = multierr.Append(err, errors.New("exchange.retry.min_delay 不能大于 max_delay"))
	}
	if c.OpenAI.APIKey == "" {
		err = multierr.Append(err, errors.New("openai.api_key 不能为空"))
	}
	if c.OpenAI.Model == "" {
		err = multierr.Append(err, errors.New("openai.model 不能为空"))
	}
	if c.OpenAI.Timeout <= 0 {
		err = multierr.Append(err, errors.New("openai.timeout 必须大于0"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
