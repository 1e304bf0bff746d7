package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-coach/internal/dsp"
	"voice-coach/internal/types"
)

type fakeFeedback struct {
	calls atomic.Int32
	err   error
}

func (f *fakeFeedback) Feedback(ctx context.Context, analysis *types.UtteranceAnalysis) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return "keep practising", nil
}

// fixtureDir 生成一个正常语音、一个静音和一个损坏的 WAV 文件
func fixtureDir(t *testing.T) (dir string, voiced, silent, broken string) {
	t.Helper()
	dir = t.TempDir()

	voiced = filepath.Join(dir, "voiced.wav")
	writeWAV(t, voiced, sine(150, 0.5, 44100, 44100), 44100)

	silent = filepath.Join(dir, "silent.wav")
	writeWAV(t, silent, make([]float64, 16000), 16000)

	broken = filepath.Join(dir, "broken.wav")
	require.NoError(t, os.WriteFile(broken, []byte("definitely not a wav file"), 0o644))
	return dir, voiced, silent, broken
}

func newTestRunner(t *testing.T, cfg *types.AnalyzerConfig, feedback FeedbackProvider, out *bytes.Buffer) *BatchRunner {
	t.Helper()
	a, err := NewAnalyzer(dsp.DefaultConfig(), nil)
	require.NoError(t, err)

	runner := NewBatchRunner(cfg, a, feedback, nil)
	runner.SetOutput(out)
	return runner
}

func TestAnalyzeFilesStatuses(t *testing.T) {
	_, voiced, silent, broken := fixtureDir(t)
	feedback := &fakeFeedback{}
	var out bytes.Buffer

	runner := newTestRunner(t, &types.AnalyzerConfig{
		Concurrency:  2,
		OutputFormat: FormatJSON,
		Feedback:     true,
	}, feedback, &out)

	results, err := runner.AnalyzeFiles(context.Background(), []string{voiced, silent, broken})
	require.NoError(t, err)
	require.Len(t, results, 3)

	byPath := make(map[string]*types.AnalysisResult)
	for _, r := range results {
		byPath[r.FilePath] = r
	}

	assert.Equal(t, types.StatusOK, byPath[voiced].Status)
	assert.Equal(t, "WAV", byPath[voiced].Format)
	assert.InEpsilon(t, 150, byPath[voiced].Analysis.FundamentalFreqHz, 0.01)
	assert.Equal(t, "keep practising", byPath[voiced].Feedback)

	assert.Equal(t, types.StatusLowConfidence, byPath[silent].Status)
	assert.True(t, byPath[silent].Analysis.InsufficientData)
	assert.Empty(t, byPath[silent].Feedback)

	assert.Equal(t, types.StatusError, byPath[broken].Status)
	assert.Contains(t, byPath[broken].Error, "解码失败")
	assert.Nil(t, byPath[broken].Analysis)

	// 只为有效分析请求反馈
	assert.Equal(t, int32(1), feedback.calls.Load())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		var decoded types.AnalysisResult
		require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	}
}

func TestAnalyzeFilesFeedbackFailureKeepsResult(t *testing.T) {
	_, voiced, _, _ := fixtureDir(t)
	var out bytes.Buffer

	runner := newTestRunner(t, &types.AnalyzerConfig{
		Concurrency:  1,
		OutputFormat: FormatJSON,
		Feedback:     true,
	}, &fakeFeedback{err: errors.New("quota exceeded")}, &out)

	results, err := runner.AnalyzeFiles(context.Background(), []string{voiced})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.StatusOK, results[0].Status)
	assert.Empty(t, results[0].Feedback)
}

func TestAnalyzeFilesQuiet(t *testing.T) {
	_, voiced, silent, broken := fixtureDir(t)
	var out bytes.Buffer

	runner := newTestRunner(t, &types.AnalyzerConfig{
		Concurrency:  3,
		Quiet:        true,
		OutputFormat: FormatText,
	}, nil, &out)

	_, err := runner.AnalyzeFiles(context.Background(), []string{voiced, silent, broken})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	sort.Strings(lines)
	want := []string{broken, silent}
	sort.Strings(want)
	assert.Equal(t, want, lines)
}

func TestAnalyzeFilesTextReport(t *testing.T) {
	_, voiced, silent, _ := fixtureDir(t)
	var out bytes.Buffer

	runner := newTestRunner(t, &types.AnalyzerConfig{
		Concurrency:  1,
		OutputFormat: FormatText,
	}, nil, &out)

	_, err := runner.AnalyzeFiles(context.Background(), []string{voiced, silent})
	require.NoError(t, err)

	report := out.String()
	assert.Contains(t, report, "=== voiced.wav ===")
	assert.Contains(t, report, "清晰度: 100/100")
	assert.Contains(t, report, "有声数据不足")
	assert.Contains(t, report, "总文件数: 2")
	assert.Contains(t, report, "正常分析: 1")
	assert.Contains(t, report, "低置信度: 1")
}

func TestAnalyzeFilesOnlyLowConfidence(t *testing.T) {
	_, voiced, silent, _ := fixtureDir(t)
	var out bytes.Buffer

	runner := newTestRunner(t, &types.AnalyzerConfig{
		Concurrency:       2,
		OnlyLowConfidence: true,
		OutputFormat:      FormatJSON,
	}, nil, &out)

	_, err := runner.AnalyzeFiles(context.Background(), []string{voiced, silent})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "silent.wav")
}

func TestWriteResultFormats(t *testing.T) {
	result := &types.AnalysisResult{
		FilePath: "a.wav",
		Format:   "WAV",
		Status:   types.StatusOK,
		Analysis: &types.UtteranceAnalysis{ClarityScore: 80, Formants: []types.Formant{{FrequencyHz: 500, Amplitude: 1}}},
	}

	var yamlOut bytes.Buffer
	require.NoError(t, WriteResult(&yamlOut, FormatYAML, result))
	assert.True(t, strings.HasPrefix(yamlOut.String(), "---\n"))
	assert.Contains(t, yamlOut.String(), "clarityScore: 80")

	var textOut bytes.Buffer
	require.NoError(t, WriteResult(&textOut, FormatText, result))
	assert.Contains(t, textOut.String(), "F1=500Hz(1.00)")

	assert.NoError(t, ValidateFormat(FormatYAML))
	assert.Error(t, ValidateFormat("csv"))
}
