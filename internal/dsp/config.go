package dsp

import (
	"fmt"
	"math"
)

// Config 分析管线配置
type Config struct {
	FrameLength int    `mapstructure:"frame_length" yaml:"frame_length"`
	HopSize     int    `mapstructure:"hop_size" yaml:"hop_size"`
	Window      string `mapstructure:"window" yaml:"window"`

	MinPitchHz    float64 `mapstructure:"min_pitch_hz" yaml:"min_pitch_hz"`
	MaxPitchHz    float64 `mapstructure:"max_pitch_hz" yaml:"max_pitch_hz"`
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"` // 归一化自相关阈值
	MinRMS        float64 `mapstructure:"min_rms" yaml:"min_rms"`               // 低于该能量视为无声

	RolloffFraction    float64 `mapstructure:"rolloff_fraction" yaml:"rolloff_fraction"`
	FormantSmoothingHz float64 `mapstructure:"formant_smoothing_hz" yaml:"formant_smoothing_hz"`
	FormantNoiseFloor  float64 `mapstructure:"formant_noise_floor" yaml:"formant_noise_floor"`
	DisplayBins        int     `mapstructure:"display_bins" yaml:"display_bins"`

	Scoring    ScoringConfig `mapstructure:"-" yaml:"-"`
	Thresholds Thresholds    `mapstructure:"-" yaml:"-"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		FrameLength:        2048,
		HopSize:            1024,
		Window:             "hann",
		MinPitchHz:         80,
		MaxPitchHz:         800,
		MinConfidence:      0.5,
		MinRMS:             1e-4,
		RolloffFraction:    0.85,
		FormantSmoothingHz: 250,
		FormantNoiseFloor:  0.05,
		DisplayBins:        512,
		Scoring:            DefaultScoring(),
		Thresholds:         DefaultThresholds(),
	}
}

// Validate 校验配置，失败时返回 ErrInvalidParameters
func (c Config) Validate() error {
	if c.FrameLength <= 0 || !isPowerOfTwo(c.FrameLength) {
		return fmt.Errorf("%w: 帧长必须为正的2的幂 (%d)", ErrInvalidParameters, c.FrameLength)
	}
	if c.HopSize <= 0 || c.HopSize > c.FrameLength {
		return fmt.Errorf("%w: 步长必须在 (0, %d] 内 (%d)", ErrInvalidParameters, c.FrameLength, c.HopSize)
	}
	if _, err := ParseWindow(c.Window); err != nil {
		return err
	}
	if c.MinPitchHz <= 0 || c.MaxPitchHz <= c.MinPitchHz {
		return fmt.Errorf("%w: 基频搜索范围非法 [%.1f, %.1f]", ErrInvalidParameters, c.MinPitchHz, c.MaxPitchHz)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("%w: 置信度阈值必须在 [0, 1] 内", ErrInvalidParameters)
	}
	if c.RolloffFraction < 0 || c.RolloffFraction > 1 {
		return fmt.Errorf("%w: 滚降比例必须在 [0, 1] 内", ErrInvalidParameters)
	}
	if c.FormantNoiseFloor < 0 || c.FormantNoiseFloor >= 1 {
		return fmt.Errorf("%w: 共振峰噪声门限必须在 [0, 1) 内", ErrInvalidParameters)
	}
	if c.DisplayBins < 0 || c.MinRMS < 0 || c.FormantSmoothingHz < 0 {
		return fmt.Errorf("%w: 数值配置不能为负", ErrInvalidParameters)
	}
	return nil
}

func validateSampleRate(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: 采样率必须为正 (%d)", ErrInvalidParameters, sampleRate)
	}
	return nil
}

// validatePitchRange 帧长必须容纳最低基频的一个完整周期的两倍，否则最低基频被悄悄抬高
func validatePitchRange(c Config, sampleRate int) error {
	maxLag := int(math.Ceil(float64(sampleRate) / c.MinPitchHz))
	if c.FrameLength/2 < maxLag {
		return fmt.Errorf("%w: 采样率 %d Hz 下最低基频 %.1f Hz 需要帧长至少 %d (当前 %d)",
			ErrInvalidParameters, sampleRate, c.MinPitchHz, NearestPowerOf2(2*maxLag), c.FrameLength)
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NearestPowerOf2 返回不小于 n 的最小2的幂
func NearestPowerOf2(n int) int {
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
