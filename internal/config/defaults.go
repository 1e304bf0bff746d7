package config

import (
	"runtime"
	"time"

	"github.com/spf13/viper"

	"voice-coach/internal/coach"
	"voice-coach/internal/dsp"
)

// setDefaults 为所有未设置的键填入默认值
func setDefaults(v *viper.Viper) {
	setDefault := func(key string, value any) {
		if !v.IsSet(key) {
			v.SetDefault(key, value)
		}
	}

	// 应用
	setDefault("log_level", "info")
	setDefault("output_format", "text")
	setDefault("concurrency", runtime.NumCPU())

	// 分析管线
	analysis := dsp.DefaultConfig()
	setDefault("analysis.frame_length", analysis.FrameLength)
	setDefault("analysis.hop_size", analysis.HopSize)
	setDefault("analysis.window", analysis.Window)
	setDefault("analysis.min_pitch_hz", analysis.MinPitchHz)
	setDefault("analysis.max_pitch_hz", analysis.MaxPitchHz)
	setDefault("analysis.min_confidence", analysis.MinConfidence)
	setDefault("analysis.min_rms", analysis.MinRMS)
	setDefault("analysis.rolloff_fraction", analysis.RolloffFraction)
	setDefault("analysis.formant_smoothing_hz", analysis.FormantSmoothingHz)
	setDefault("analysis.formant_noise_floor", analysis.FormantNoiseFloor)
	setDefault("analysis.display_bins", analysis.DisplayBins)

	// 清晰度评分
	scoring := dsp.DefaultScoring()
	setDefault("scoring.jitter_weight", scoring.JitterWeight)
	setDefault("scoring.shimmer_weight", scoring.ShimmerWeight)

	// 建议阈值
	t := dsp.DefaultThresholds()
	setDefault("recommendations.pitch_low_hz", t.PitchLowHz)
	setDefault("recommendations.pitch_high_hz", t.PitchHighHz)
	setDefault("recommendations.jitter_high", t.JitterHigh)
	setDefault("recommendations.jitter_low", t.JitterLow)
	setDefault("recommendations.shimmer_high", t.ShimmerHigh)
	setDefault("recommendations.shimmer_low", t.ShimmerLow)
	setDefault("recommendations.clarity_low", t.ClarityLow)
	setDefault("recommendations.clarity_high", t.ClarityHigh)

	// 实时模式
	setDefault("live.buffer_size", 4096)
	setDefault("live.pace", true)

	// HTTP 服务
	setDefault("server.addr", ":8080")
	setDefault("server.max_upload_bytes", int64(50*1024*1024))
	setDefault("server.read_header_timeout", 10*time.Second)
	setDefault("server.shutdown_timeout", 5*time.Second)

	// 教练
	opts := coach.DefaultOptions()
	setDefault("coach.api_key", "")
	setDefault("coach.model", coach.DefaultModel)
	setDefault("coach.timeout", opts.Timeout)
	setDefault("coach.temperature", opts.Temperature)
	setDefault("coach.max_tokens", opts.MaxTokens)
}
