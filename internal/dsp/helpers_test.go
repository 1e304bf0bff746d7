package dsp

import (
	"math"
	"math/rand"
	"testing"

	"voice-coach/internal/types"
)

func sine(freq, amplitude float64, sampleRate, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return x
}

// sawtooth 限带锯齿波：前 20 个低于奈奎斯特频率的谐波，第 h 次谐波振幅 0.3/h
func sawtooth(freq float64, sampleRate, n int) []float64 {
	return harmonicSeries(freq, sampleRate, n, func(h int) float64 { return 0.3 / float64(h) }, math.Sin)
}

// pulseTrain 限带脉冲串：前 20 个谐波等幅，相位对齐形成尖峰
func pulseTrain(freq float64, sampleRate, n int) []float64 {
	return harmonicSeries(freq, sampleRate, n, func(int) float64 { return 0.05 }, math.Cos)
}

func harmonicSeries(freq float64, sampleRate, n int, amplitude func(h int) float64, wave func(float64) float64) []float64 {
	x := make([]float64, n)
	nyquist := float64(sampleRate) / 2
	for h := 1; h <= 20 && float64(h)*freq < nyquist; h++ {
		a := amplitude(h)
		for i := range x {
			x[i] += a * wave(2*math.Pi*float64(h)*freq*float64(i)/float64(sampleRate))
		}
	}
	return x
}

func whiteNoise(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, n)
	for i := range x {
		x[i] = rng.Float64()*2 - 1
	}
	return x
}

func waveform(samples []float64, sampleRate int) types.WaveformBuffer {
	return types.WaveformBuffer{Samples: samples, SampleRate: sampleRate, Channels: 1}
}

// extractAll 对整段波形分帧并提取全部帧特征
func extractAll(t testing.TB, cfg Config, buf types.WaveformBuffer) []FrameFeatures {
	t.Helper()
	extractor, err := NewExtractor(cfg, buf.SampleRate)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	framer, err := NewFramer(buf, cfg.FrameLength, cfg.HopSize)
	if err != nil {
		t.Fatalf("NewFramer: %v", err)
	}

	var features []FrameFeatures
	for {
		frame, ok := framer.Next()
		if !ok {
			return features
		}
		features = append(features, extractor.Extract(frame))
	}
}
