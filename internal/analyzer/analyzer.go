package analyzer

import (
	"context"

	"go.uber.org/zap"

	"voice-coach/internal/dsp"
	"voice-coach/internal/types"
)

// Analyzer 离线分析驱动：一次处理完整录音并返回最终结果
type Analyzer struct {
	cfg    dsp.Config
	logger *zap.Logger
}

// Result 异步分析结果
type Result struct {
	Analysis *types.UtteranceAnalysis
	Err      error
}

// NewAnalyzer 创建离线分析器
func NewAnalyzer(cfg dsp.Config, logger *zap.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{cfg: cfg, logger: logger.Named("analyzer")}, nil
}

// Config 返回分析配置
func (a *Analyzer) Config() dsp.Config {
	return a.cfg
}

// Analyze 同步分析一段波形。每帧之间检查 ctx，被取消时丢弃中间结果并返回 ctx.Err()。
func (a *Analyzer) Analyze(ctx context.Context, buf types.WaveformBuffer) (*types.UtteranceAnalysis, error) {
	extractor, err := dsp.NewExtractor(a.cfg, buf.SampleRate)
	if err != nil {
		return nil, err
	}

	features, err := extractFeatures(ctx, extractor, buf)
	if err != nil {
		return nil, err
	}

	degenerate := 0
	for _, f := range features {
		if f.Spectrum.Check() != nil {
			degenerate++
		}
	}

	analysis := dsp.Aggregate(buf, a.cfg, features)
	a.logger.Debug("分析完成",
		zap.Int("frames", analysis.FrameCount),
		zap.Int("degenerate", degenerate),
		zap.Float64("f0", analysis.FundamentalFreqHz),
		zap.Float64("voiced", analysis.VoicedPercent),
		zap.Bool("insufficient", analysis.InsufficientData),
	)
	return analysis, nil
}

// AnalyzeAsync 在独立 goroutine 中分析，结果通过通道返回一次后关闭
func (a *Analyzer) AnalyzeAsync(ctx context.Context, buf types.WaveformBuffer) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		analysis, err := a.Analyze(ctx, buf)
		out <- Result{Analysis: analysis, Err: err}
	}()
	return out
}

// extractFeatures 对波形分帧并逐帧提取特征
func extractFeatures(ctx context.Context, extractor *dsp.Extractor, buf types.WaveformBuffer) ([]dsp.FrameFeatures, error) {
	cfg := extractor.Config()
	framer, err := dsp.NewFramer(buf, cfg.FrameLength, cfg.HopSize)
	if err != nil {
		return nil, err
	}

	features := make([]dsp.FrameFeatures, 0, framer.Count())
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, ok := framer.Next()
		if !ok {
			break
		}
		features = append(features, extractor.Extract(frame))
	}
	return features, nil
}
