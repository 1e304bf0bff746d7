package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"voice-coach/internal/types"
)

// ErrNoResponse 模型没有返回文本
var ErrNoResponse = errors.New("模型未生成任何回复")

// Request 一次文本生成请求
type Request struct {
	Prompt       string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
}

// Generator 文本生成服务
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Options 教练参数
type Options struct {
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"` // 0 表示不限时
}

// DefaultOptions 返回默认参数
func DefaultOptions() Options {
	return Options{Temperature: 0.8, MaxTokens: 800, Timeout: 30 * time.Second}
}

// 人设反馈的生成参数
const (
	personaTemperature = 0.7
	personaMaxTokens   = 1024
)

// Coach 将分析结果转成教练反馈
type Coach struct {
	gen    Generator
	opts   Options
	logger *zap.Logger
}

// New 创建教练
func New(gen Generator, opts Options, logger *zap.Logger) *Coach {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coach{gen: gen, opts: opts, logger: logger.Named("coach")}
}

// Feedback 请求一段针对分析结果的教练反馈
func (c *Coach) Feedback(ctx context.Context, analysis *types.UtteranceAnalysis) (string, error) {
	if analysis == nil {
		return "", fmt.Errorf("分析结果为空")
	}
	return c.generate(ctx, Request{
		Prompt:       BuildPrompt(analysis),
		SystemPrompt: SystemPrompt,
		Temperature:  c.opts.Temperature,
		MaxTokens:    c.opts.MaxTokens,
	})
}

// PersonaFeedback 以给定人设的风格点评一次朗读练习
func (c *Coach) PersonaFeedback(ctx context.Context, persona Persona, analysis *types.UtteranceAnalysis, practiceText string) (string, error) {
	if analysis == nil {
		return "", fmt.Errorf("分析结果为空")
	}
	if persona.Name == "" || persona.SystemPrompt == "" {
		return "", fmt.Errorf("人设缺少名称或提示词")
	}
	return c.generate(ctx, Request{
		Prompt:      BuildPersonaPrompt(persona, analysis, practiceText),
		Temperature: personaTemperature,
		MaxTokens:   personaMaxTokens,
	})
}

func (c *Coach) generate(ctx context.Context, req Request) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	text, err := c.gen.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("生成教练反馈失败: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoResponse
	}
	c.logger.Debug("收到教练反馈", zap.Int("length", len(text)))
	return text, nil
}
