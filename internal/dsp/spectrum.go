package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// SpectralFrame 单帧幅度/相位谱，bin i 对应频率 i * SampleRate / FrameLength
type SpectralFrame struct {
	Magnitudes  []float64
	Phases      []float64
	SampleRate  int
	FrameLength int
}

// NumBins 返回频点数 (FrameLength/2)
func (s SpectralFrame) NumBins() int {
	return len(s.Magnitudes)
}

// Resolution 返回频率分辨率 (Hz/bin)
func (s SpectralFrame) Resolution() float64 {
	if s.FrameLength == 0 {
		return 0
	}
	return float64(s.SampleRate) / float64(s.FrameLength)
}

// BinFrequency 返回第 i 个频点的频率
func (s SpectralFrame) BinFrequency(i int) float64 {
	return float64(i) * s.Resolution()
}

// Nyquist 返回奈奎斯特频率
func (s SpectralFrame) Nyquist() float64 {
	return float64(s.SampleRate) / 2
}

// Check 频谱为空、全零或含非有限值时返回 ErrNumericDegenerate，此时描述符按零值处理
func (s SpectralFrame) Check() error {
	if s.NumBins() == 0 {
		return fmt.Errorf("%w: 空频谱", ErrNumericDegenerate)
	}
	total := floats.Sum(s.Magnitudes)
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return fmt.Errorf("%w: 频谱含非有限值", ErrNumericDegenerate)
	}
	if total == 0 {
		return fmt.Errorf("%w: 全零频谱", ErrNumericDegenerate)
	}
	return nil
}

// Transformer 对帧加窗并做FFT。构造后只读，可并发使用
type Transformer struct {
	window      Window
	coeffs      []float64
	gain        float64
	frameLength int
	sampleRate  int
}

// NewTransformer 创建频谱变换器
func NewTransformer(frameLength, sampleRate int, window Window) *Transformer {
	coeffs := window.Coefficients(frameLength)

	// 相干增益归一化，满幅正弦的峰值约等于其振幅
	gain := floats.Sum(coeffs) / 2
	if gain <= 0 {
		gain = 1
	}

	return &Transformer{
		window:      window,
		coeffs:      coeffs,
		gain:        gain,
		frameLength: frameLength,
		sampleRate:  sampleRate,
	}
}

// Transform 计算一帧的幅度谱和相位谱
func (t *Transformer) Transform(frame Frame) SpectralFrame {
	windowed := make([]float64, t.frameLength)
	copy(windowed, frame.Samples)
	floats.Mul(windowed, t.coeffs)

	spectrum := fft.FFTReal(windowed)

	numBins := t.frameLength / 2
	result := SpectralFrame{
		Magnitudes:  make([]float64, numBins),
		Phases:      make([]float64, numBins),
		SampleRate:  t.sampleRate,
		FrameLength: t.frameLength,
	}
	for i := 0; i < numBins; i++ {
		result.Magnitudes[i] = cmplx.Abs(spectrum[i]) / t.gain
		result.Phases[i] = cmplx.Phase(spectrum[i])
	}
	return result
}

// AverageSpectrum 逐频点求平均幅度谱，相位不保留
func AverageSpectrum(spectra []SpectralFrame) SpectralFrame {
	if len(spectra) == 0 {
		return SpectralFrame{}
	}

	first := spectra[0]
	avg := SpectralFrame{
		Magnitudes:  make([]float64, first.NumBins()),
		SampleRate:  first.SampleRate,
		FrameLength: first.FrameLength,
	}
	for _, s := range spectra {
		floats.Add(avg.Magnitudes, s.Magnitudes)
	}
	floats.Scale(1/float64(len(spectra)), avg.Magnitudes)
	return avg
}
