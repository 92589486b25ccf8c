// Package config 提供 TOML 配置加载、环境变量覆盖与校验
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 梯级机器人配置
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 状态接口配置
	HTTP HTTPConfig `mapstructure:"http"`
	// gRPC 健康检查配置
	GRPC GRPCConfig `mapstructure:"grpc"`
	// 挂单流水数据库
	Database DatabaseConfig `mapstructure:"database"`
	// 读模型 Redis
	Redis RedisConfig `mapstructure:"redis"`
	// 事件 Kafka
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 交易所 REST 接口
	Exchange ExchangeConfig `mapstructure:"exchange"`
	// 签名中继
	Signer SignerConfig `mapstructure:"signer"`
	// 策略与调度
	Bot BotConfig `mapstructure:"bot"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled"`
	// 监听地址
	Host string `mapstructure:"host"`
	// 监听端口
	Port int `mapstructure:"port"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
}

// Addr 监听地址
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GRPCConfig gRPC 服务配置
type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Addr 监听地址
func (c GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 是否启用挂单流水
	Enabled bool `mapstructure:"enabled"`
	// 驱动：mysql, sqlite
	Driver string `mapstructure:"driver"`
	// 数据源名称
	DSN string `mapstructure:"dsn"`
	// 最大连接数
	MaxOpenConns int `mapstructure:"max_open_conns"`
	// 最大空闲连接数
	MaxIdleConns int `mapstructure:"max_idle_conns"`
	// 连接最大生命周期（秒）
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"`
	// 是否启用日志
	LogEnabled bool `mapstructure:"log_enabled"`
	// 慢查询阈值（毫秒）
	SlowQueryThreshold int `mapstructure:"slow_query_threshold"`
	// 启动时自动建表
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 是否启用，关闭时读模型保存在内存
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	MaxPoolSize  int    `mapstructure:"max_pool_size"`
	ConnTimeout  int    `mapstructure:"conn_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// 是否启用事件发布
	Enabled bool `mapstructure:"enabled"`
	// Broker 地址列表
	Brokers []string `mapstructure:"brokers"`
	// 主题前缀
	TopicPrefix string `mapstructure:"topic_prefix"`
	// 最大重试次数
	MaxRetries int `mapstructure:"max_retries"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
	// 是否压缩
	EnableCompression bool `mapstructure:"enable_compression"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	WithCaller bool   `mapstructure:"with_caller"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// ExchangeConfig 交易所接口配置
type ExchangeConfig struct {
	// 链下 API 根地址
	APIRoot string `mapstructure:"api_root"`
	// 轻量 API 根地址（余额）
	LightAPIRoot string `mapstructure:"light_api_root"`
	// 链名
	Chain string `mapstructure:"chain"`
	// 请求超时（毫秒）
	RequestTimeoutMs int `mapstructure:"request_timeout_ms"`
	// 每秒请求数，0 表示不限
	RateLimitQPS float64 `mapstructure:"rate_limit_qps"`
	// 突发容量
	Burst int `mapstructure:"burst"`
	// 连续失败熔断阈值
	BreakerFailures int `mapstructure:"breaker_failures"`
	// 熔断恢复时间（秒）
	BreakerTimeout int `mapstructure:"breaker_timeout"`
	// 挂单分页大小
	PageSize int `mapstructure:"page_size"`
	// 盘口聚合步长
	DepthStep int `mapstructure:"depth_step"`
}

// RequestTimeout 请求超时
func (c ExchangeConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// SignerConfig 签名中继配置
type SignerConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	Permission string `mapstructure:"permission"`
	// 请求超时（毫秒）
	TimeoutMs  int `mapstructure:"timeout_ms"`
	MaxRetries int `mapstructure:"max_retries"`
}

// BotConfig 策略调度配置
type BotConfig struct {
	// 交易账户
	Account string `mapstructure:"account"`
	// gridBot 或 marketMaker
	Strategy string `mapstructure:"strategy"`
	// tick 间隔（毫秒）
	TradeIntervalMs int `mapstructure:"trade_interval_ms"`
	// 每批挂单数
	BatchSize int `mapstructure:"batch_size"`
	// 批次间隔（毫秒）
	BatchPacingMs int `mapstructure:"batch_pacing_ms"`
	// 退出时撤销全部挂单
	CancelOpenOrdersOnExit bool `mapstructure:"cancel_open_orders_on_exit"`
	// 撤单最长耗时（秒）
	ShutdownTimeout int `mapstructure:"shutdown_timeout"`
	// 撮合队列处理长度
	ProcessQueue int `mapstructure:"process_queue"`
	// 雪花节点号
	NodeID int64 `mapstructure:"node_id"`
	// 账户概览间隔（毫秒），0 表示关闭
	AccountReportIntervalMs int `mapstructure:"account_report_interval_ms"`
	// 账户概览中的历史委托条数
	OrderHistoryLimit int `mapstructure:"order_history_limit"`
	// 网格策略
	GridBot PairsConfig `mapstructure:"grid_bot"`
	// 做市策略
	MarketMaker PairsConfig `mapstructure:"market_maker"`
}

// PairsConfig 交易对列表，字段在领域层解析
type PairsConfig struct {
	Pairs []map[string]any `mapstructure:"pairs"`
}

// TradeInterval tick 间隔
func (c BotConfig) TradeInterval() time.Duration {
	return time.Duration(c.TradeIntervalMs) * time.Millisecond
}

// AccountReportInterval 账户概览间隔
func (c BotConfig) AccountReportInterval() time.Duration {
	return time.Duration(c.AccountReportIntervalMs) * time.Millisecond
}

// BatchPacing 批次间隔
func (c BotConfig) BatchPacing() time.Duration {
	return time.Duration(c.BatchPacingMs) * time.Millisecond
}

// ActivePairs 当前策略的交易对
func (c BotConfig) ActivePairs() []map[string]any {
	if c.Strategy == "marketMaker" {
		return c.MarketMaker.Pairs
	}
	return c.GridBot.Pairs
}

// Load 从 TOML 文件加载配置，支持默认值与环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 环境变量覆盖，例如 APP_BOT_ACCOUNT
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Enabled && (c.HTTP.Port <= 0 || c.HTTP.Port > 65535) {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.GRPC.Enabled && (c.GRPC.Port <= 0 || c.GRPC.Port > 65535) {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if c.Database.Enabled && c.Database.DSN == "" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database DSN is required for %s driver", c.Database.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}
	if c.Exchange.APIRoot == "" {
		return fmt.Errorf("exchange.api_root is required")
	}
	if c.Signer.Endpoint == "" {
		return fmt.Errorf("signer.endpoint is required")
	}
	if c.Bot.Account == "" {
		return fmt.Errorf("bot.account is required")
	}
	switch c.Bot.Strategy {
	case "gridBot", "marketMaker":
	default:
		return fmt.Errorf("unknown bot.strategy %q", c.Bot.Strategy)
	}
	if c.Bot.TradeIntervalMs <= 0 {
		return fmt.Errorf("bot.trade_interval_ms must be positive")
	}
	if c.Bot.AccountReportIntervalMs < 0 {
		return fmt.Errorf("bot.account_report_interval_ms must not be negative")
	}
	if len(c.Bot.ActivePairs()) == 0 {
		return fmt.Errorf("no pairs configured for strategy %s", c.Bot.Strategy)
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "ladderbot")
	v.SetDefault("environment", "dev")

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.slow_query_threshold", 1000)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.write_timeout", 10)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/ladderbot.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("exchange.chain", "proton")
	v.SetDefault("exchange.request_timeout_ms", 10000)
	v.SetDefault("exchange.rate_limit_qps", 10)
	v.SetDefault("exchange.burst", 5)
	v.SetDefault("exchange.breaker_failures", 5)
	v.SetDefault("exchange.breaker_timeout", 30)
	v.SetDefault("exchange.page_size", 150)
	v.SetDefault("exchange.depth_step", 100000)

	v.SetDefault("signer.permission", "active")
	v.SetDefault("signer.timeout_ms", 30000)
	v.SetDefault("signer.max_retries", 3)

	v.SetDefault("bot.strategy", "gridBot")
	v.SetDefault("bot.trade_interval_ms", 5000)
	v.SetDefault("bot.batch_size", 30)
	v.SetDefault("bot.batch_pacing_ms", 2000)
	v.SetDefault("bot.cancel_open_orders_on_exit", false)
	v.SetDefault("bot.shutdown_timeout", 120)
	v.SetDefault("bot.process_queue", 50)
	v.SetDefault("bot.node_id", 1)
	v.SetDefault("bot.account_report_interval_ms", 60000)
	v.SetDefault("bot.order_history_limit", 100)
}

// GetEnv 获取环境变量，支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
