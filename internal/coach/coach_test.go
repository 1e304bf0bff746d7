package coach

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-coach/internal/types"
)

type fakeGenerator struct {
	reply       string
	err         error
	got         Request
	hasDeadline bool
}

func (f *fakeGenerator) Generate(ctx context.Context, req Request) (string, error) {
	f.got = req
	_, f.hasDeadline = ctx.Deadline()
	return f.reply, f.err
}

func sampleAnalysis() *types.UtteranceAnalysis {
	return &types.UtteranceAnalysis{
		FundamentalFreqHz: 165.31,
		JitterPercent:     0.8,
		ShimmerPercent:    1.234,
		ClarityScore:      65,
		Formants: []types.Formant{
			{FrequencyHz: 512.4, Amplitude: 1},
			{FrequencyHz: 1490, Amplitude: 0.6},
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(sampleAnalysis())

	assert.Contains(t, prompt, "Fundamental Frequency: 165.3 Hz")
	assert.Contains(t, prompt, "Pitch Stability (Jitter): 0.80%")
	assert.Contains(t, prompt, "Volume Stability (Shimmer): 1.23%")
	assert.Contains(t, prompt, "Clarity Score: 65%")
	assert.Contains(t, prompt, "Formants: 512Hz, 1490Hz")
	assert.Contains(t, prompt, "Limit to 4 paragraphs.")

	empty := BuildPrompt(&types.UtteranceAnalysis{})
	assert.Contains(t, empty, "Formants: Not available")
}

func TestFeedback(t *testing.T) {
	gen := &fakeGenerator{reply: "\n  Great pitch control.  \n"}
	c := New(gen, DefaultOptions(), nil)

	text, err := c.Feedback(context.Background(), sampleAnalysis())
	require.NoError(t, err)
	assert.Equal(t, "Great pitch control.", text)

	assert.Equal(t, SystemPrompt, gen.got.SystemPrompt)
	assert.Equal(t, float32(0.8), gen.got.Temperature)
	assert.Equal(t, 800, gen.got.MaxTokens)
	assert.Equal(t, BuildPrompt(sampleAnalysis()), gen.got.Prompt)
	assert.True(t, gen.hasDeadline)
}

func TestFeedbackNoTimeout(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	c := New(gen, Options{Temperature: 0.5, MaxTokens: 100}, nil)

	_, err := c.Feedback(context.Background(), sampleAnalysis())
	require.NoError(t, err)
	assert.False(t, gen.hasDeadline)
	assert.Equal(t, float32(0.5), gen.got.Temperature)
}

func TestFeedbackErrors(t *testing.T) {
	tests := []struct {
		name    string
		gen     *fakeGenerator
		input   *types.UtteranceAnalysis
		wantErr error
	}{
		{"blank reply", &fakeGenerator{reply: "   \n"}, sampleAnalysis(), ErrNoResponse},
		{"generator failure", &fakeGenerator{err: context.DeadlineExceeded}, sampleAnalysis(), context.DeadlineExceeded},
		{"nil analysis", &fakeGenerator{reply: "unused"}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.gen, Options{Timeout: time.Second}, nil)
			text, err := c.Feedback(context.Background(), tt.input)
			require.Error(t, err)
			assert.Empty(t, text)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
}

func TestBuildPersonaPrompt(t *testing.T) {
	p := Persona{Name: "Morgan Freeman", SystemPrompt: "You are Morgan Freeman, known for a warm, resonant baritone."}
	prompt := BuildPersonaPrompt(p, sampleAnalysis(), "<p><b>Hello</b> world</p>")

	assert.True(t, strings.HasPrefix(prompt, p.SystemPrompt))
	assert.Contains(t, prompt, `"Hello world"`)
	assert.Contains(t, prompt, "in your characteristic style as Morgan Freeman.")
	assert.Contains(t, prompt, "in the voice and style of Morgan Freeman.")
	assert.Contains(t, prompt, "Overall Clarity Score: 65%")
	assert.Contains(t, prompt, "Formant Frequencies: 512Hz, 1490Hz")
	assert.NotContains(t, prompt, "<b>")

	empty := BuildPersonaPrompt(p, &types.UtteranceAnalysis{}, "")
	assert.Contains(t, empty, "Formant Frequencies: Not available")
}

func TestPersonaFeedback(t *testing.T) {
	gen := &fakeGenerator{reply: " In my experience, slow down. "}
	c := New(gen, DefaultOptions(), nil)
	p := Persona{Name: "Oprah", SystemPrompt: "You are Oprah Winfrey."}

	text, err := c.PersonaFeedback(context.Background(), p, sampleAnalysis(), "Good evening")
	require.NoError(t, err)
	assert.Equal(t, "In my experience, slow down.", text)

	assert.Empty(t, gen.got.SystemPrompt)
	assert.Equal(t, float32(0.7), gen.got.Temperature)
	assert.Equal(t, 1024, gen.got.MaxTokens)
	assert.Equal(t, BuildPersonaPrompt(p, sampleAnalysis(), "Good evening"), gen.got.Prompt)
	assert.True(t, gen.hasDeadline)
}

func TestPersonaFeedbackErrors(t *testing.T) {
	tests := []struct {
		name    string
		persona Persona
		input   *types.UtteranceAnalysis
	}{
		{"nil analysis", Persona{Name: "Oprah", SystemPrompt: "You are Oprah Winfrey."}, nil},
		{"missing name", Persona{SystemPrompt: "You are someone."}, sampleAnalysis()},
		{"missing prompt", Persona{Name: "Oprah"}, sampleAnalysis()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: "unused"}
			c := New(gen, DefaultOptions(), nil)
			text, err := c.PersonaFeedback(context.Background(), tt.persona, tt.input, "text")
			require.Error(t, err)
			assert.Empty(t, text)
			assert.Empty(t, gen.got.Prompt)
		})
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "")
	assert.Error(t, err)
}
