package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// Config 全局配置
type Config struct {
	Env      string         `mapstructure:"env"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	LogLevel        string        `mapstructure:"log_level"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis 配置，URL 为空时使用进程内缓存
type RedisConfig struct {
	URL       string `mapstructure:"url"`
	Namespace string `mapstructure:"namespace"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// StorageConfig 文件存储配置
type StorageConfig struct {
	Provider  string `mapstructure:"provider"` // s3 | local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	CDNDomain string `mapstructure:"cdn_domain"`
	BasePath  string `mapstructure:"base_path"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// TasksConfig 定时任务配置
type TasksConfig struct {
	CacheWarmEnabled   bool          `mapstructure:"cache_warm_enabled"`
	CacheWarmSpec      string        `mapstructure:"cache_warm_spec"`
	OrderExpireEnabled bool          `mapstructure:"order_expire_enabled"`
	OrderExpireSpec    string        `mapstructure:"order_expire_spec"`
	OrderExpireAfter   time.Duration `mapstructure:"order_expire_after"`
}

// CheckoutConfig 结账（银行转账）配置
type CheckoutConfig struct {
	BankName      string        `mapstructure:"bank_name"`
	IBAN          string        `mapstructure:"iban"`
	AccountHolder string        `mapstructure:"account_holder"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// ==================== 加载 ====================

// EnvPrefix 环境变量前缀，如 PARTS_DATABASE_DSN
const EnvPrefix = "PARTS"

// Load 加载配置
// 优先级：环境变量 > 配置文件 > 默认值；.env 文件会先被载入环境
func Load(file string) (*Config, error) {
	// .env 不存在不是错误
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || file != "" {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验关键配置
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database.dsn 不能为空")
	}
	if c.IsProduction() && c.JWT.Secret == defaultJWTSecret {
		return errors.New("生产环境必须配置 jwt.secret")
	}
	switch c.Storage.Provider {
	case "s3", "local":
	default:
		return fmt.Errorf("不支持的存储提供者: %s", c.Storage.Provider)
	}
	return nil
}

const defaultJWTSecret = "parts-shop-secret-change-in-production"

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log.level", "info")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.dsn", "host=localhost user=parts password=parts dbname=partsshop port=5432 sslmode=disable")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.namespace", "partsshop:")

	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.issuer", "parts-shop")
	v.SetDefault("jwt.access_ttl", 2*time.Hour)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.base_path", "./uploads")
	v.SetDefault("storage.endpoint", "http://localhost:8080/uploads")

	v.SetDefault("cache.ttl", 10*time.Minute)

	v.SetDefault("tasks.cache_warm_enabled", true)
	v.SetDefault("tasks.cache_warm_spec", "0 */10 * * * *")
	v.SetDefault("tasks.order_expire_enabled", true)
	v.SetDefault("tasks.order_expire_spec", "0 15 * * * *")
	v.SetDefault("tasks.order_expire_after", 72*time.Hour)

	v.SetDefault("checkout.bank_name", "")
	v.SetDefault("checkout.iban", "")
	v.SetDefault("checkout.account_holder", "")
	v.SetDefault("checkout.cooldown", 10*time.Second)
}
