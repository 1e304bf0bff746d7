package dsp

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// keyMaximumRatio 第一个达到最高峰该比例的局部峰即为基频周期。
// 非整数周期会压低 1 倍周期处的整数延迟相关值，谐波越丰富压得越多，
// 而 2 倍周期可能恰好接近整数，直接取最大值会报低一个八度。
// 只有偶次谐波能量超过约 85% 时 T/2 处的相关值才会越过该比例
const keyMaximumRatio = 0.7

// PitchEstimate 单帧基频估计，无声帧 FrequencyHz 为 0
type PitchEstimate struct {
	FrequencyHz   float64
	Confidence    float64 // 最佳延迟处的归一化自相关, 0-1
	PeriodSamples float64
	Voiced        bool
}

// EstimatePitch 用归一化自相关估计时域信号的基频。
// 只搜索重叠至少一个完整周期的延迟 (lag <= len/2)。
func EstimatePitch(x []float64, sampleRate int, cfg Config) PitchEstimate {
	n := len(x)
	if n < 4 || sampleRate <= 0 || cfg.MinPitchHz <= 0 || cfg.MaxPitchHz <= 0 {
		return PitchEstimate{}
	}

	// 去除直流分量，否则常数偏置会让所有延迟的相关值都接近 1
	centered := make([]float64, n)
	copy(centered, x)
	floats.AddConst(-stat.Mean(x, nil), centered)
	if rms := RMS(centered); rms == 0 || rms < cfg.MinRMS {
		return PitchEstimate{}
	}

	sr := float64(sampleRate)
	minLag := max(1, int(math.Ceil(sr/cfg.MaxPitchHz)))
	maxLag := min(int(math.Floor(sr/cfg.MinPitchHz)), n/2)
	if minLag > maxLag {
		return PitchEstimate{}
	}

	corr := newNormalizedAutocorrelation(centered)

	// 只考虑局部峰值：搜索区间边界上仍在上升的相关值不代表周期
	values := make([]float64, maxLag-minLag+3)
	for i := range values {
		values[i] = corr.at(minLag - 1 + i)
	}
	isPeak := func(i int) bool {
		l, v, r := values[i-1], values[i], values[i+1]
		return v >= l && v >= r && (v > l || v > r)
	}

	// 峰高取抛物线插值后的值，非整数周期时更接近真实峰高
	heights := make([]float64, len(values))
	offsets := make([]float64, len(values))
	best := math.Inf(-1)
	for i := 1; i < len(values)-1; i++ {
		if !isPeak(i) {
			continue
		}
		offsets[i] = parabolicOffset(values[i-1], values[i], values[i+1])
		heights[i] = values[i] - 0.25*(values[i-1]-values[i+1])*offsets[i]
		best = math.Max(best, heights[i])
	}
	if math.IsInf(best, -1) || best < cfg.MinConfidence {
		return PitchEstimate{Confidence: clamp(best, 0, 1)}
	}

	peakIndex := 1
	for i := 1; i < len(values)-1; i++ {
		if isPeak(i) && heights[i] >= keyMaximumRatio*best {
			peakIndex = i
			break
		}
	}

	period := float64(minLag-1+peakIndex) + offsets[peakIndex]
	return PitchEstimate{
		FrequencyHz:   sr / period,
		Confidence:    clamp(heights[peakIndex], 0, 1),
		PeriodSamples: period,
		Voiced:        true,
	}
}

// parabolicOffset 三点抛物线插值求峰值偏移，范围 [-0.5, 0.5]
func parabolicOffset(left, center, right float64) float64 {
	denom := left - 2*center + right
	if denom >= 0 {
		return 0
	}
	return clamp(0.5*(left-right)/denom, -0.5, 0.5)
}

// normalizedAutocorrelation 通过FFT一次性计算全部延迟的自相关和，
// 再用前缀能量对每个延迟归一化
type normalizedAutocorrelation struct {
	raw    []float64
	prefix []float64 // prefix[k] = Σ_{i<k} x[i]²
}

func newNormalizedAutocorrelation(x []float64) *normalizedAutocorrelation {
	n := len(x)
	size := NearestPowerOf2(2 * n)

	padded := make([]float64, size)
	copy(padded, x)

	spectrum := fft.FFTReal(padded)
	for i, v := range spectrum {
		spectrum[i] = v * cmplx.Conj(v)
	}
	inverse := fft.IFFT(spectrum)

	prefix := make([]float64, n+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v*v
	}

	// 按零延迟能量校准逆变换的缩放
	scale := 1.0
	if r0 := real(inverse[0]); r0 > 0 {
		scale = prefix[n] / r0
	}

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = real(inverse[i]) * scale
	}
	return &normalizedAutocorrelation{raw: raw, prefix: prefix}
}

func (a *normalizedAutocorrelation) at(lag int) float64 {
	n := len(a.raw)
	if lag < 0 || lag >= n {
		return 0
	}
	head := a.prefix[n-lag]
	tail := a.prefix[n] - a.prefix[lag]
	denom := math.Sqrt(head * tail)
	if denom <= 0 {
		return 0
	}
	return a.raw[lag] / denom
}

// PitchTrack 整段语音的基频轨迹
type PitchTrack struct {
	ContourHz    []float64 // 每帧一个值，无声帧为 0
	MedianHz     float64   // 有声帧的中位数
	VoicedFrames int
}

// TrackPitch 汇总逐帧估计为基频轨迹，中位数抑制离群值
func TrackPitch(estimates []PitchEstimate) PitchTrack {
	track := PitchTrack{ContourHz: make([]float64, len(estimates))}

	voiced := make([]float64, 0, len(estimates))
	for i, e := range estimates {
		if !e.Voiced {
			continue
		}
		track.ContourHz[i] = e.FrequencyHz
		voiced = append(voiced, e.FrequencyHz)
	}

	track.VoicedFrames = len(voiced)
	track.MedianHz = median(voiced)
	return track
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
