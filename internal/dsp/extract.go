package dsp

import "fmt"

// FrameFeatures 单帧特征
type FrameFeatures struct {
	Index            int
	Pitch            PitchEstimate
	PeakAmplitude    float64
	RMS              float64
	ZeroCrossingRate float64
	CentroidHz       float64
	RolloffHz        float64
	Spectrum         SpectralFrame
}

// Extractor 无状态的逐帧特征提取器，离线与实时两种驱动共用。
// 构造后只读，可在多个 goroutine 中同时使用。
type Extractor struct {
	cfg         Config
	sampleRate  int
	transformer *Transformer
}

// NewExtractor 校验配置并创建特征提取器
func NewExtractor(cfg Config, sampleRate int) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, err
	}
	if err := validatePitchRange(cfg, sampleRate); err != nil {
		return nil, err
	}
	window, err := ParseWindow(cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("创建特征提取器失败: %w", err)
	}

	return &Extractor{
		cfg:         cfg,
		sampleRate:  sampleRate,
		transformer: NewTransformer(cfg.FrameLength, sampleRate, window),
	}, nil
}

// Config 返回提取器配置
func (e *Extractor) Config() Config {
	return e.cfg
}

// SampleRate 返回采样率
func (e *Extractor) SampleRate() int {
	return e.sampleRate
}

// Extract 计算一帧的全部特征。时域特征只使用有效样本，频谱使用补零后的整帧。
func (e *Extractor) Extract(frame Frame) FrameFeatures {
	signal := frame.Signal()
	spectrum := e.transformer.Transform(frame)

	return FrameFeatures{
		Index:            frame.Index,
		Pitch:            EstimatePitch(signal, e.sampleRate, e.cfg),
		PeakAmplitude:    PeakAmplitude(signal),
		RMS:              RMS(signal),
		ZeroCrossingRate: ZeroCrossingRate(signal),
		CentroidHz:       SpectralCentroid(spectrum),
		RolloffHz:        SpectralRolloff(spectrum, e.cfg.RolloffFraction),
		Spectrum:         spectrum,
	}
}

// Formants 在给定频谱上检测共振峰
func (e *Extractor) Formants(s SpectralFrame) FormantSet {
	return DetectFormants(s, e.cfg.FormantSmoothingHz, e.cfg.FormantNoiseFloor)
}
