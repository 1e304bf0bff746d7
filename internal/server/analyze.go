package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"voice-coach/internal/coach"
	"voice-coach/internal/dsp"
	"voice-coach/internal/types"
)

// PersonaCoach 支持人设风格反馈的教练
type PersonaCoach interface {
	PersonaFeedback(ctx context.Context, persona coach.Persona, analysis *types.UtteranceAnalysis, practiceText string) (string, error)
}

var errPersonaUnsupported = errors.New("当前教练不支持人设反馈")

// multipart 表单头部等额外开销
const formOverhead = 1 << 20

type feedbackResponse struct {
	Analysis      *types.UtteranceAnalysis `json:"analysis"`
	Feedback      string                   `json:"feedback"`
	FeedbackError string                   `json:"feedbackError,omitempty"`
}

func (s *Server) tooLarge(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, fmt.Sprintf("File too large. Maximum size is %dMB.", s.opts.MaxUploadBytes>>20))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.tooLarge(w)
			return
		}
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	if header.Size > s.opts.MaxUploadBytes {
		s.tooLarge(w)
		return
	}

	personaID := strings.ToLower(strings.TrimSpace(r.FormValue("persona")))
	persona, knownPersona := s.opts.Personas[personaID]
	if personaID != "" && !knownPersona {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown persona: %s", personaID))
		return
	}

	format, err := s.registry.FormatFor(header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file type. Please upload an audio file.")
		return
	}

	audioFile, err := s.registry.DecodeReader(format, file)
	if err != nil {
		s.logger.Info("上传音频解码失败", zap.String("file", header.Filename), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to decode audio: %v", err))
		return
	}
	defer audioFile.Close()

	waveform, err := audioFile.GetWaveform()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to decode audio: %v", err))
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), waveform)
	if err != nil {
		if errors.Is(err, dsp.ErrInvalidParameters) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("语音分析失败", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to analyze voice")
		return
	}

	wantFeedback := r.URL.Query().Get("feedback") == "true" || personaID != ""
	if !wantFeedback || s.feedback == nil {
		writeJSON(w, http.StatusOK, analysis)
		return
	}

	resp := feedbackResponse{Analysis: analysis}
	var text string
	if personaID != "" {
		if pc, ok := s.feedback.(PersonaCoach); ok {
			text, err = pc.PersonaFeedback(r.Context(), persona, analysis, r.FormValue("practiceText"))
		} else {
			err = errPersonaUnsupported
		}
	} else {
		text, err = s.feedback.Feedback(r.Context(), analysis)
	}
	if err != nil {
		s.logger.Warn("获取教练反馈失败", zap.String("persona", personaID), zap.Error(err))
		resp.FeedbackError = err.Error()
	} else {
		resp.Feedback = text
	}
	writeJSON(w, http.StatusOK, resp)
}
