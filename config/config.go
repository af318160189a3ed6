package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabaseConfig  `mapstructure:"db"`
	Redis    RedisConfig     `mapstructure:"redis"`
	Auth     AuthConfig      `mapstructure:"auth"`
	Log      LogConfig       `mapstructure:"log"`
	Ledger   LedgerConfig    `mapstructure:"ledger"`
	JobSites []JobSiteConfig `mapstructure:"job_sites"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"` // 二维码中的打卡链接前缀
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	URL             string `mapstructure:"url"` // 非空时优先于分项配置（兼容 DATABASE_URL）
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 分钟
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（可选组件）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 管理端认证配置
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	AccessTokenTTL    time.Duration `mapstructure:"access_token_ttl"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"` // bcrypt
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// 打卡冲突判定范围
const (
	ScopeWorker = "worker" // 同一工人全局仅允许一个未结束班次
	ScopeSite   = "site"   // 同一工人在每个工地各允许一个
)

// 工人编码模式
const (
	CodeModeDurable  = "durable"   // 每个 (姓名, 分包商) 固定一个编码
	CodeModePerShift = "per_shift" // 每次上班生成新编码
)

// LedgerConfig 班次台账配置
type LedgerConfig struct {
	StaleAfter      time.Duration `mapstructure:"stale_after"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	OpenShiftScope  string        `mapstructure:"open_shift_scope"`
	CodeMode        string        `mapstructure:"code_mode"`
	CodeMaxAttempts int           `mapstructure:"code_max_attempts"`
}

// JobSiteConfig 工地目录条目；Timezone 仅用于展示
type JobSiteConfig struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	Timezone string `mapstructure:"timezone"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 10000)
	v.SetDefault("server.base_url", "http://localhost:10000")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.url", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "shifts")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "12h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ledger.stale_after", "24h")
	v.SetDefault("ledger.sweep_interval", "1m")
	v.SetDefault("ledger.open_shift_scope", ScopeWorker)
	v.SetDefault("ledger.code_mode", CodeModeDurable)
	v.SetDefault("ledger.code_max_attempts", 50)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("SHIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容旧部署的 DATABASE_URL
	_ = v.BindEnv("db.url", "SHIFT_DB_URL", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
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

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Auth.AdminPasswordHash == "" {
		return fmt.Errorf("配置校验失败: auth.admin_password_hash 不能为空")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Ledger.StaleAfter <= 0 {
		return fmt.Errorf("配置校验失败: ledger.stale_after 必须大于 0")
	}
	switch c.Ledger.OpenShiftScope {
	case ScopeWorker, ScopeSite:
	default:
		return fmt.Errorf("配置校验失败: ledger.open_shift_scope 只能是 %s 或 %s", ScopeWorker, ScopeSite)
	}
	switch c.Ledger.CodeMode {
	case CodeModeDurable, CodeModePerShift:
	default:
		return fmt.Errorf("配置校验失败: ledger.code_mode 只能是 %s 或 %s", CodeModeDurable, CodeModePerShift)
	}
	if c.Ledger.CodeMaxAttempts <= 0 {
		return fmt.Errorf("配置校验失败: ledger.code_max_attempts 必须大于 0")
	}
	if len(c.JobSites) == 0 {
		return fmt.Errorf("配置校验失败: job_sites 至少需要一个工地")
	}
	seen := make(map[string]bool, len(c.JobSites))
	for _, site := range c.JobSites {
		if strings.TrimSpace(site.ID) == "" {
			return fmt.Errorf("配置校验失败: job_sites.id 不能为空")
		}
		if seen[site.ID] {
			return fmt.Errorf("配置校验失败: job_sites.id 重复: %s", site.ID)
		}
		seen[site.ID] = true
		if site.Timezone != "" {
			if _, err := time.LoadLocation(site.Timezone); err != nil {
				return fmt.Errorf("配置校验失败: 工地 %s 的时区 %q 无效: %w", site.ID, site.Timezone, err)
			}
		}
	}
	return nil
}
