package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"voice-coach/internal/coach"
	"voice-coach/internal/dsp"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "VOICE_COACH"

// Config 应用配置
type Config struct {
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	Concurrency  int    `mapstructure:"concurrency" yaml:"concurrency"`

	Analysis        dsp.Config        `mapstructure:"analysis" yaml:"analysis"`
	Scoring         dsp.ScoringConfig `mapstructure:"scoring" yaml:"scoring"`
	Recommendations dsp.Thresholds    `mapstructure:"recommendations" yaml:"recommendations"`

	Live   LiveConfig   `mapstructure:"live" yaml:"live"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Coach  CoachConfig  `mapstructure:"coach" yaml:"coach"`
}

// LiveConfig 实时模式配置
type LiveConfig struct {
	BufferSize int  `mapstructure:"buffer_size" yaml:"buffer_size"` // 每个缓冲区的样本数
	Pace       bool `mapstructure:"pace" yaml:"pace"`               // 文件回放时按实时速度节拍
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// CoachConfig 教练反馈配置
type CoachConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"-"`
	Model  string `mapstructure:"model" yaml:"model"`

	coach.Options `mapstructure:",squash" yaml:",inline"`

	Personas map[string]coach.Persona `mapstructure:"personas" yaml:"personas,omitempty"`
}

// Enabled 是否配置了 API key
func (c CoachConfig) Enabled() bool {
	return c.APIKey != ""
}

// Init 配置 viper 的文件搜索路径和环境变量
func Init(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "voice-coach"))
		}
		v.AddConfigPath("/etc/voice-coach")
		v.SetConfigName("voice-coach")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// 兼容通用的 GEMINI_API_KEY
	if err := v.BindEnv("coach.api_key", EnvPrefix+"_COACH_API_KEY", "GEMINI_API_KEY"); err != nil {
		return err
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && configFile == "" {
			return nil
		}
		return fmt.Errorf("读取配置文件失败: %w", err)
	}
	return nil
}

// Load 从 viper 解析并校验配置
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AnalysisConfig 返回合并了评分常数和建议阈值的分析配置
func (c *Config) AnalysisConfig() dsp.Config {
	cfg := c.Analysis
	cfg.Scoring = c.Scoring
	cfg.Thresholds = c.Recommendations
	return cfg
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if c.Scoring.JitterWeight < 0 || c.Scoring.ShimmerWeight < 0 {
		return fmt.Errorf("scoring: 权重不能为负")
	}
	t := c.Recommendations
	if t.PitchLowHz >= t.PitchHighHz {
		return fmt.Errorf("recommendations: pitch_low_hz 必须小于 pitch_high_hz")
	}
	if t.JitterLow > t.JitterHigh || t.ShimmerLow > t.ShimmerHigh || t.ClarityLow > t.ClarityHigh {
		return fmt.Errorf("recommendations: 下限阈值不能大于上限阈值")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency 必须为正")
	}
	switch c.OutputFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("不支持的输出格式: %s", c.OutputFormat)
	}
	if c.Live.BufferSize <= 0 {
		return fmt.Errorf("live.buffer_size 必须为正")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes 必须为正")
	}
	if c.Coach.MaxTokens < 0 || c.Coach.Temperature < 0 {
		return fmt.Errorf("coach: 参数不能为负")
	}
	for id, p := range c.Coach.Personas {
		if p.Name == "" || p.SystemPrompt == "" {
			return fmt.Errorf("coach.personas.%s: 需要 name 和 system_prompt", id)
		}
	}
	return nil
}
