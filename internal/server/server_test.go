package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-coach/internal/coach"
	"voice-coach/internal/dsp"
	"voice-coach/internal/types"
)

type fakeFeedback struct{}

func (fakeFeedback) Feedback(ctx context.Context, analysis *types.UtteranceAnalysis) (string, error) {
	return "nice and steady", nil
}

func (fakeFeedback) PersonaFeedback(ctx context.Context, persona coach.Persona, analysis *types.UtteranceAnalysis, practiceText string) (string, error) {
	return persona.Name + ": " + practiceText, nil
}

// plainFeedback 不支持人设反馈
type plainFeedback struct{}

func (plainFeedback) Feedback(ctx context.Context, analysis *types.UtteranceAnalysis) (string, error) {
	return "plain", nil
}

func sine(freq float64, sampleRate, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return x
}

// wavBytes 以 16 位单声道 WAV 编码采样
func wavBytes(t *testing.T, samples []float64, sampleRate int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v * 32767)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return raw
}

func newTestServer(t *testing.T, opts Options, feedback bool) *httptest.Server {
	t.Helper()
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 50 << 20
	}

	var s *Server
	var err error
	if feedback {
		s, err = New(dsp.DefaultConfig(), opts, fakeFeedback{}, nil)
	} else {
		s, err = New(dsp.DefaultConfig(), opts, nil, nil)
	}
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

// upload 发送 multipart 上传请求
func upload(t *testing.T, url, field, fileName, contentType string, data []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+fileName+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e.Error
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, Options{}, false)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyzeVoice(t *testing.T) {
	srv := newTestServer(t, Options{}, false)

	resp := upload(t, srv.URL+"/api/analyze-voice", "audio", "take.wav", "audio/wav", wavBytes(t, sine(150, 44100, 44100), 44100))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var analysis types.UtteranceAnalysis
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&analysis))
	assert.InEpsilon(t, 150, analysis.FundamentalFreqHz, 0.01)
	assert.False(t, analysis.InsufficientData)
	assert.Equal(t, 44100, analysis.SampleRate)
	assert.Len(t, analysis.SpectralBins, dsp.DefaultConfig().DisplayBins)
	assert.NotEmpty(t, analysis.Recommendations)
}

func TestAnalyzeVoiceSilence(t *testing.T) {
	srv := newTestServer(t, Options{}, false)

	resp := upload(t, srv.URL+"/api/analyze-voice", "audio", "quiet.wav", "application/octet-stream", wavBytes(t, make([]float64, 8000), 8000))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var analysis types.UtteranceAnalysis
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&analysis))
	assert.True(t, analysis.InsufficientData)
	assert.Equal(t, 0.0, analysis.FundamentalFreqHz)
}

func TestAnalyzeVoiceFeedback(t *testing.T) {
	srv := newTestServer(t, Options{}, true)

	resp := upload(t, srv.URL+"/api/analyze-voice?feedback=true", "audio", "take.wav", "audio/x-wav", wavBytes(t, sine(180, 16000, 16000), 16000))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body feedbackResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Analysis)
	assert.Equal(t, "nice and steady", body.Feedback)
	assert.Empty(t, body.FeedbackError)
}

func TestAnalyzeVoicePersonaFeedback(t *testing.T) {
	opts := Options{Personas: map[string]coach.Persona{
		"oprah": {Name: "Oprah Winfrey", SystemPrompt: "You are Oprah Winfrey."},
	}}
	srv := newTestServer(t, opts, true)
	take := wavBytes(t, sine(180, 16000, 16000), 16000)

	q := url.Values{"persona": {"Oprah"}, "practiceText": {"Good evening"}}
	resp := upload(t, srv.URL+"/api/analyze-voice?"+q.Encode(), "audio", "take.wav", "audio/wav", take)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body feedbackResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Analysis)
	assert.Equal(t, "Oprah Winfrey: Good evening", body.Feedback)

	resp = upload(t, srv.URL+"/api/analyze-voice?persona=nobody", "audio", "take.wav", "audio/wav", take)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, resp), "Unknown persona")
}

func TestAnalyzeVoicePersonaUnsupported(t *testing.T) {
	s, err := New(dsp.DefaultConfig(), Options{
		MaxUploadBytes: 50 << 20,
		Personas:       map[string]coach.Persona{"oprah": {Name: "Oprah Winfrey", SystemPrompt: "You are Oprah Winfrey."}},
	}, plainFeedback{}, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	resp := upload(t, srv.URL+"/api/analyze-voice?persona=oprah", "audio", "take.wav", "audio/wav", wavBytes(t, sine(180, 16000, 16000), 16000))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body feedbackResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Feedback)
	assert.Equal(t, errPersonaUnsupported.Error(), body.FeedbackError)
}

func TestAnalyzeVoiceRejects(t *testing.T) {
	srv := newTestServer(t, Options{MaxUploadBytes: 1000}, false)
	url := srv.URL + "/api/analyze-voice"

	tests := []struct {
		name        string
		field       string
		fileName    string
		contentType string
		data        []byte
		wantStatus  int
		wantMessage string
	}{
		{"no file", "", "", "", nil, http.StatusBadRequest, "No audio file provided"},
		{"wrong field", "upload", "take.wav", "audio/wav", []byte("x"), http.StatusBadRequest, "No audio file provided"},
		{"not audio", "audio", "notes.txt", "text/plain", []byte("hello"), http.StatusBadRequest, "Invalid file type. Please upload an audio file."},
		{"too large", "audio", "big.wav", "audio/wav", make([]byte, 2000), http.StatusBadRequest, "File too large"},
		{"undecodable", "audio", "bad.wav", "audio/wav", []byte("not a wav at all"), http.StatusUnprocessableEntity, "Failed to decode audio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, url, tt.field, tt.fileName, tt.contentType, tt.data)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, decodeError(t, resp), tt.wantMessage)
		})
	}
}

func TestAnalyzeVoiceMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Options{}, false)

	resp, err := http.Get(srv.URL + "/api/analyze-voice")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
