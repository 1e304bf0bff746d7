package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"voice-coach/internal/analyzer"
	"voice-coach/internal/coach"
	"voice-coach/internal/config"
	"voice-coach/internal/decoder"
)

var (
	configFile   string
	logLevel     string
	outputFormat string
	version      = "0.3.0"

	appConfig *config.Config
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "voice-coach",
	Short: "语音质量分析与发声练习建议",
	Long: `Voice Coach 是一个语音分析工具，从录音或实时音频中提取基频、
jitter、shimmer、共振峰和频谱特征，给出 0-100 的清晰度评分和练习建议。
当前支持 WAV, FLAC 格式。

可选接入 Gemini 生成更详细的教练反馈（需配置 API key）。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"配置文件 (默认查找 ./voice-coach.yaml, $HOME/.config/voice-coach/voice-coach.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "日志级别 (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "输出格式 (text, json, yaml)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output"))

	rootCmd.SetVersionTemplate("voice-coach version {{.Version}}\n")
	rootCmd.Version = version
}

// initializeConfig 在参数解析后读取配置文件、环境变量并创建日志
func initializeConfig(cmd *cobra.Command) error {
	v := viper.GetViper()
	if err := config.Init(v, configFile); err != nil {
		return err
	}
	if err := bindFlags(cmd, v); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	appConfig = cfg

	logger, err = newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("使用配置文件", zap.String("path", used))
	}
	return nil
}

// bindFlags 将未显式设置的参数与 viper 中的值对齐
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if !f.Changed && v.IsSet(key) {
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(key))); err != nil {
				lastErr = err
			}
		}
		if err := v.BindPFlag(key, f); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

// flagKeys 命令行参数到配置键的映射
var flagKeys = map[string]string{
	"log-level":    "log_level",
	"output":       "output_format",
	"concurrency":  "concurrency",
	"frame-length": "analysis.frame_length",
	"hop":          "analysis.hop_size",
	"window":       "analysis.window",
	"buffer":       "live.buffer_size",
	"addr":         "server.addr",
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("日志级别非法: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	return cfg.Build()
}

// newFeedbackProvider 配置了 API key 时创建 Gemini 教练，否则返回 nil
func newFeedbackProvider(ctx context.Context) (analyzer.FeedbackProvider, error) {
	if !appConfig.Coach.Enabled() {
		return nil, nil
	}
	gen, err := coach.NewGemini(ctx, appConfig.Coach.APIKey, appConfig.Coach.Model)
	if err != nil {
		return nil, err
	}
	return coach.New(gen, appConfig.Coach.Options, logger), nil
}

func collectAudioFiles(path string) ([]string, error) {
	var files []string
	supportedExts := make(map[string]bool)
	for _, ext := range decoder.NewDecoderRegistry().SupportedExtensions() {
		supportedExts[ext] = true
	}

	err := filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(strings.ToLower(filePath))
		if supportedExts[ext] {
			files = append(files, filePath)
		}

		return nil
	})

	return files, err
}
