package types

import "time"

// AnalyzerConfig 批量分析配置
type AnalyzerConfig struct {
	Concurrency       int    // 并发数
	Quiet             bool   // 静默模式
	OnlyLowConfidence bool   // 只显示低置信度结果
	OutputFormat      string // text, json, yaml
	Feedback          bool   // 是否请求教练反馈
}

// WaveformBuffer 单声道PCM波形，采样值范围 [-1, 1]
type WaveformBuffer struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Duration 返回波形时长
func (w WaveformBuffer) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// AudioMetadata 音频元数据
type AudioMetadata struct {
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Artist   string `json:"artist,omitempty" yaml:"artist,omitempty"`
	Album    string `json:"album,omitempty" yaml:"album,omitempty"`
	Year     string `json:"year,omitempty" yaml:"year,omitempty"`
	Genre    string `json:"genre,omitempty" yaml:"genre,omitempty"`
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Formant 共振峰
type Formant struct {
	FrequencyHz float64 `json:"freq" yaml:"freq"`
	Amplitude   float64 `json:"amplitude" yaml:"amplitude"` // 相对于帧峰值, 0-1
}

// UtteranceAnalysis 一段语音的完整分析结果，构造后不再修改
type UtteranceAnalysis struct {
	FundamentalFreqHz float64   `json:"fundamentalFreq" yaml:"fundamentalFreq"`
	JitterPercent     float64   `json:"jitter" yaml:"jitter"`
	ShimmerPercent    float64   `json:"shimmer" yaml:"shimmer"`
	ClarityScore      int       `json:"clarityScore" yaml:"clarityScore"`
	Formants          []Formant `json:"formants" yaml:"formants"`
	SpectralBins      []float64 `json:"spectralData" yaml:"spectralData"`
	PitchContourHz    []float64 `json:"pitchContour" yaml:"pitchContour"`
	DurationSeconds   float64   `json:"duration" yaml:"duration"`
	VoicedPercent     float64   `json:"voicedPercentage" yaml:"voicedPercentage"`
	Recommendations   []string  `json:"recommendations" yaml:"recommendations"`

	SpectralCentroidHz float64 `json:"spectralCentroid" yaml:"spectralCentroid"`
	SpectralRolloffHz  float64 `json:"spectralRolloff" yaml:"spectralRolloff"`
	ZeroCrossingRate   float64 `json:"zeroCrossingRate" yaml:"zeroCrossingRate"`
	RMS                float64 `json:"rms" yaml:"rms"`

	// InsufficientData 有声帧少于2个时置位，此时 jitter/shimmer 为 0
	InsufficientData bool `json:"insufficientData" yaml:"insufficientData"`
	SampleRate       int  `json:"sampleRate" yaml:"sampleRate"`
	FrameCount       int  `json:"frameCount" yaml:"frameCount"`
}

// LiveSnapshot 实时模式下单个缓冲区的特征快照
type LiveSnapshot struct {
	Sequence           uint64    `json:"sequence" yaml:"sequence"`
	FundamentalFreqHz  float64   `json:"fundamentalFreq" yaml:"fundamentalFreq"`
	Confidence         float64   `json:"confidence" yaml:"confidence"`
	Voiced             bool      `json:"voiced" yaml:"voiced"`
	SpectralCentroidHz float64   `json:"spectralCentroid" yaml:"spectralCentroid"`
	SpectralRolloffHz  float64   `json:"spectralRolloff" yaml:"spectralRolloff"`
	ZeroCrossingRate   float64   `json:"zeroCrossingRate" yaml:"zeroCrossingRate"`
	RMS                float64   `json:"rms" yaml:"rms"`
	Formants           []Formant `json:"formants" yaml:"formants"`
	SpectralBins       []float64 `json:"spectralData" yaml:"spectralData"`
}

// AnalysisResult 批量模式下单个文件的分析结果
type AnalysisResult struct {
	FilePath string             `json:"filePath" yaml:"filePath"`
	Format   string             `json:"format" yaml:"format"`
	Metadata AudioMetadata      `json:"metadata" yaml:"metadata"`
	Status   string             `json:"status" yaml:"status"` // "OK", "LOW_CONFIDENCE", "ERROR"
	Analysis *UtteranceAnalysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Feedback string             `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	Error    string             `json:"error,omitempty" yaml:"error,omitempty"`
}

// 批量结果状态
const (
	StatusOK            = "OK"
	StatusLowConfidence = "LOW_CONFIDENCE"
	StatusError         = "ERROR"
)

// AudioFile 音频文件接口
type AudioFile interface {
	GetFormat() string
	GetSampleRate() int
	GetBitDepth() int
	GetChannels() int
	GetDuration() time.Duration
	// GetWaveform 返回下混为单声道的波形
	GetWaveform() (WaveformBuffer, error)
	GetMetadata() AudioMetadata
	Close() error
}
