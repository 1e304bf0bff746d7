package dsp

import (
	"gonum.org/v1/gonum/stat"

	"voice-coach/internal/types"
)

// Aggregate 将逐帧特征汇总为整段语音的分析结果。
// 有声帧少于2个时不报错，而是返回 InsufficientData 标记的尽力结果。
func Aggregate(buf types.WaveformBuffer, cfg Config, features []FrameFeatures) *types.UtteranceAnalysis {
	estimates := make([]PitchEstimate, len(features))
	voiced := make([]FrameFeatures, 0, len(features))
	for i, f := range features {
		estimates[i] = f.Pitch
		if f.Pitch.Voiced {
			voiced = append(voiced, f)
		}
	}

	track := TrackPitch(estimates)
	perturbation := measureVoiced(voiced)

	// 描述符与频谱取有声帧；完全无声时退回全部帧
	basis := voiced
	if len(basis) == 0 {
		basis = features
	}
	avgSpectrum := averageOf(basis)

	clarity := ClarityScore(perturbation.JitterPercent, perturbation.ShimmerPercent, cfg.Scoring)
	recs := Recommend(track.MedianHz, perturbation.JitterPercent, perturbation.ShimmerPercent, clarity, cfg.Thresholds)

	analysis := &types.UtteranceAnalysis{
		FundamentalFreqHz:  track.MedianHz,
		JitterPercent:      perturbation.JitterPercent,
		ShimmerPercent:     perturbation.ShimmerPercent,
		ClarityScore:       clarity,
		Formants:           DetectFormants(avgSpectrum, cfg.FormantSmoothingHz, cfg.FormantNoiseFloor),
		SpectralBins:       displayBins(avgSpectrum, cfg.DisplayBins),
		PitchContourHz:     track.ContourHz,
		DurationSeconds:    buf.Duration().Seconds(),
		VoicedPercent:      percent(track.VoicedFrames, len(features)),
		Recommendations:    Messages(recs),
		SpectralCentroidHz: meanOf(basis, func(f FrameFeatures) float64 { return f.CentroidHz }),
		SpectralRolloffHz:  meanOf(basis, func(f FrameFeatures) float64 { return f.RolloffHz }),
		ZeroCrossingRate:   meanOf(basis, func(f FrameFeatures) float64 { return f.ZeroCrossingRate }),
		RMS:                meanOf(basis, func(f FrameFeatures) float64 { return f.RMS }),
		InsufficientData:   perturbation.Insufficient,
		SampleRate:         buf.SampleRate,
		FrameCount:         len(features),
	}
	if analysis.Formants == nil {
		analysis.Formants = []types.Formant{}
	}
	return analysis
}

// Snapshot 将一个实时缓冲区的帧特征汇总为实时快照
func Snapshot(seq uint64, cfg Config, features []FrameFeatures) types.LiveSnapshot {
	snap := types.LiveSnapshot{Sequence: seq, Formants: []types.Formant{}}
	if len(features) == 0 {
		return snap
	}

	estimates := make([]PitchEstimate, len(features))
	var confidence float64
	for i, f := range features {
		estimates[i] = f.Pitch
		confidence = max(confidence, f.Pitch.Confidence)
	}
	track := TrackPitch(estimates)
	spectrum := averageOf(features)

	snap.FundamentalFreqHz = track.MedianHz
	snap.Confidence = confidence
	snap.Voiced = track.VoicedFrames > 0
	snap.SpectralCentroidHz = meanOf(features, func(f FrameFeatures) float64 { return f.CentroidHz })
	snap.SpectralRolloffHz = meanOf(features, func(f FrameFeatures) float64 { return f.RolloffHz })
	snap.ZeroCrossingRate = meanOf(features, func(f FrameFeatures) float64 { return f.ZeroCrossingRate })
	snap.RMS = meanOf(features, func(f FrameFeatures) float64 { return f.RMS })
	snap.Formants = append(snap.Formants, DetectFormants(spectrum, cfg.FormantSmoothingHz, cfg.FormantNoiseFloor)...)
	snap.SpectralBins = displayBins(spectrum, cfg.DisplayBins)
	return snap
}

func measureVoiced(voiced []FrameFeatures) Perturbation {
	periods := make([]float64, len(voiced))
	amplitudes := make([]float64, len(voiced))
	for i, f := range voiced {
		periods[i] = 1 / f.Pitch.FrequencyHz
		amplitudes[i] = f.PeakAmplitude
	}
	return MeasurePerturbation(periods, amplitudes)
}

func averageOf(features []FrameFeatures) SpectralFrame {
	spectra := make([]SpectralFrame, len(features))
	for i, f := range features {
		spectra[i] = f.Spectrum
	}
	return AverageSpectrum(spectra)
}

func meanOf(features []FrameFeatures, value func(FrameFeatures) float64) float64 {
	if len(features) == 0 {
		return 0
	}
	values := make([]float64, len(features))
	for i, f := range features {
		values[i] = value(f)
	}
	return stat.Mean(values, nil)
}

func displayBins(s SpectralFrame, limit int) []float64 {
	n := s.NumBins()
	if limit > 0 && limit < n {
		n = limit
	}
	bins := make([]float64, n)
	copy(bins, s.Magnitudes)
	return bins
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
