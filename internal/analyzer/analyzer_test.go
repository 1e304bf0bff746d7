package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-coach/internal/dsp"
)

func TestAnalyzeSine(t *testing.T) {
	a, err := NewAnalyzer(dsp.DefaultConfig(), nil)
	require.NoError(t, err)

	analysis, err := a.Analyze(context.Background(), waveform(sine(150, 0.5, 44100, 44100), 44100))
	require.NoError(t, err)

	assert.InEpsilon(t, 150, analysis.FundamentalFreqHz, 0.01)
	assert.Less(t, analysis.JitterPercent, 0.05)
	assert.False(t, analysis.InsufficientData)
	assert.InDelta(t, 1.0, analysis.DurationSeconds, 1e-9)
	assert.Len(t, analysis.PitchContourHz, analysis.FrameCount)
}

func TestAnalyzeSilenceIsNotAnError(t *testing.T) {
	a, err := NewAnalyzer(dsp.DefaultConfig(), nil)
	require.NoError(t, err)

	analysis, err := a.Analyze(context.Background(), waveform(make([]float64, 8000), 8000))
	require.NoError(t, err)
	assert.True(t, analysis.InsufficientData)
	assert.Zero(t, analysis.FundamentalFreqHz)
}

func TestAnalyzeInvalidSampleRate(t *testing.T) {
	a, err := NewAnalyzer(dsp.DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), waveform(make([]float64, 100), 0))
	assert.ErrorIs(t, err, dsp.ErrInvalidParameters)
}

func TestNewAnalyzerRejectsInvalidConfig(t *testing.T) {
	cfg := dsp.DefaultConfig()
	cfg.FrameLength = 1000
	_, err := NewAnalyzer(cfg, nil)
	assert.ErrorIs(t, err, dsp.ErrInvalidParameters)
}

func TestAnalyzeCancelled(t *testing.T) {
	a, err := NewAnalyzer(dsp.DefaultConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analysis, err := a.Analyze(ctx, waveform(sine(150, 0.5, 44100, 44100), 44100))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, analysis)
}

func TestAnalyzeAsync(t *testing.T) {
	a, err := NewAnalyzer(dsp.DefaultConfig(), nil)
	require.NoError(t, err)

	results := a.AnalyzeAsync(context.Background(), waveform(sine(200, 0.5, 16000, 16000), 16000))

	select {
	case res, ok := <-results:
		require.True(t, ok)
		require.NoError(t, res.Err)
		assert.InEpsilon(t, 200, res.Analysis.FundamentalFreqHz, 0.01)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for async analysis")
	}

	_, ok := <-results
	assert.False(t, ok)
}
