package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var valid = validator.New()

// EnvPrefix 环境变量前缀：OUTAGE_STORE_ROOT -> store.root
const EnvPrefix = "OUTAGE"

// Source kinds.
const (
	KindRegular   = "regular"
	KindIrregular = "irregular"
)

// Config 全局配置结构体（Collector 与 Reconstructor 共用）
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Sources   []SourceConfig  `yaml:"sources" mapstructure:"sources" validate:"dive"`
	Collector CollectorConfig `yaml:"collector" mapstructure:"collector"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Alert     AlertConfig     `yaml:"alert" mapstructure:"alert"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Log       ZapLogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig is the filesystem convention shared by both processes.
type StoreConfig struct {
	Root           string `yaml:"root" mapstructure:"root" validate:"required"`
	CadenceMinutes int    `yaml:"cadence_minutes" mapstructure:"cadence_minutes" validate:"required,gt=0,lte=1440"`
	TimeZone       string `yaml:"time_zone" mapstructure:"time_zone" validate:"required"`
}

// SourceConfig 一个被轮询的上游端点
type SourceConfig struct {
	Name     string `yaml:"name" mapstructure:"name" validate:"required,excludesall=/\\"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required,url"`
	Kind     string `yaml:"kind" mapstructure:"kind" validate:"omitempty,oneof=regular irregular"`
	Label    string `yaml:"label,omitempty" mapstructure:"label"`
}

// CollectorConfig 采集循环配置
type CollectorConfig struct {
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"required,gt=0"`
	MaxSleep  time.Duration `yaml:"max_sleep" mapstructure:"max_sleep" validate:"required,gt=0"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// ServerConfig HTTP服务配置（/metrics, /health, /sources）
type ServerConfig struct {
	Enable       bool          `yaml:"enable" mapstructure:"enable"`
	Addr         string        `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"required,gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"required,gt=0"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"required,gt=0"`
}

// AlertConfig 告警配置，SlackWebhookURL 为空时只写日志
type AlertConfig struct {
	SlackWebhookURL string        `yaml:"slack_webhook_url" mapstructure:"slack_webhook_url" validate:"omitempty,url"`
	Channel         string        `yaml:"channel" mapstructure:"channel"`
	Username        string        `yaml:"username" mapstructure:"username"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"required,gt=0"`
}

// RenderConfig 图表输出配置
type RenderConfig struct {
	Output     string `yaml:"output" mapstructure:"output" validate:"required"`
	FineOutput string `yaml:"fine_output" mapstructure:"fine_output" validate:"required"`
	Title      string `yaml:"title" mapstructure:"title"`
	FineTitle  string `yaml:"fine_title" mapstructure:"fine_title"`
	XLabel     string `yaml:"x_label" mapstructure:"x_label"`
	YLabel     string `yaml:"y_label" mapstructure:"y_label"`
	ValueField string `yaml:"value_field" mapstructure:"value_field" validate:"required"`
	Open       bool   `yaml:"open" mapstructure:"open"`
	Progress   bool   `yaml:"progress" mapstructure:"progress"`
}

// ZapLogConfig 日志配置
type ZapLogConfig struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format    string `yaml:"format" mapstructure:"format" validate:"required,oneof=json console"`
	Path      string `yaml:"path" mapstructure:"path"`
	MaxSize   int    `yaml:"max_size" mapstructure:"max_size" validate:"gte=0"`
	MaxBackup int    `yaml:"max_backup" mapstructure:"max_backup" validate:"gte=0"`
	MaxAge    int    `yaml:"max_age" mapstructure:"max_age" validate:"gte=0"`
}

const entergyAPI = "https://entergy.datacapable.com/datacapable/v1/entergy/"

const nolaFineEndpoint = "https://arcgis.entergy.datacapable.com/arcgis/rest/services/Public/FeatureServer/1/query?where=1%3D1&outFields=*&returnGeometry=true&spatialRel=esriSpatialRelIntersects&f=json"

// DefaultSources 默认数据源（Entergy 四个州 zip/county + 新奥尔良故障点）
func DefaultSources() []SourceConfig {
	regions := []struct{ prefix, region, label string }{
		{"NOLA", "EntergyNOLA", "New Orleans"},
		{"LOIS", "EntergyLouisiana", "Louisiana"},
		{"MISS", "EntergyMississippi", "Mississippi"},
		{"ARKA", "EntergyArkansas", "Arkansas"},
	}
	sources := make([]SourceConfig, 0, 2*len(regions)+1)
	for _, r := range regions {
		sources = append(sources,
			SourceConfig{Name: r.prefix + "zip", Endpoint: entergyAPI + r.region + "/zip", Kind: KindRegular, Label: r.label},
			SourceConfig{Name: r.prefix + "county", Endpoint: entergyAPI + r.region + "/county", Kind: KindRegular, Label: r.label + " (county)"},
		)
	}
	return append(sources, SourceConfig{Name: "NOLAfine", Endpoint: nolaFineEndpoint, Kind: KindIrregular, Label: "New Orleans faults"})
}

// NewDefaultConfig 创建默认配置（所有字段兜底）
func NewDefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Root:           "./scraped_data",
			CadenceMinutes: 30,
			TimeZone:       "Local",
		},
		Collector: CollectorConfig{
			Timeout:   30 * time.Second,
			MaxSleep:  time.Minute,
			UserAgent: "outage-collector/1.0",
		},
		Server: ServerConfig{
			Enable:       true,
			Addr:         "0.0.0.0:9105",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  15 * time.Second,
		},
		Alert: AlertConfig{
			Username: "outage-collector",
			Timeout:  10 * time.Second,
		},
		Render: RenderConfig{
			Output:     "customersaffected.html",
			FineOutput: "faults.html",
			Title:      "Number of Entergy Energy Customers Affected",
			FineTitle:  "Number of Faults in New Orleans",
			XLabel:     "Time",
			YLabel:     "Number of Customers Affected",
			ValueField: "customersAffected",
			Open:       true,
			Progress:   true,
		},
		Log: ZapLogConfig{
			Level:     "info",
			Format:    "console",
			Path:      "./logs",
			MaxSize:   100,
			MaxBackup: 0,
			MaxAge:    7,
		},
	}
}

// LoadConfigWithCli 加载配置 (Flags + YAML + ENV)
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	cfg := NewDefaultConfig()
	v := viper.New()

	// 1. 绑定 Cobra Flags → Viper
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	// 2. 配置文件 (--config)，未指定则只用默认值
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// 3. 环境变量 OUTAGE_ALERT_SLACK_WEBHOOK_URL -> alert.slack_webhook_url
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := Decode(v.AllSettings(), cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Decode 反序列化到结构体（支持 time.Duration 与逗号分隔切片）
func Decode(settings map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Sources) == 0 {
		c.Sources = DefaultSources()
	}
	for i := range c.Sources {
		if c.Sources[i].Kind == "" {
			c.Sources[i].Kind = KindRegular
		}
		if c.Sources[i].Label == "" {
			c.Sources[i].Label = c.Sources[i].Name
		}
	}
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := ValidateSources(c.Sources); err != nil {
		return err
	}
	if err := c.Collector.Validate(c.Store); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// Location 解析 store.time_zone
func (s StoreConfig) Location() (*time.Location, error) {
	if s.TimeZone == "" || strings.EqualFold(s.TimeZone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(s.TimeZone)
}

// Cadence returns the configured cadence as a duration.
func (s StoreConfig) Cadence() time.Duration {
	return time.Duration(s.CadenceMinutes) * time.Minute
}

// Source 按名称查找数据源
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}
