package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"voice-coach/internal/analyzer"
	"voice-coach/internal/capture"
	"voice-coach/internal/coach"
	"voice-coach/internal/decoder"
	"voice-coach/internal/dsp"
)

// Options HTTP 服务参数
type Options struct {
	Addr              string
	MaxUploadBytes    int64
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Personas          map[string]coach.Persona // 键为小写的人设 ID
}

// Server 语音分析 HTTP 服务
type Server struct {
	cfg      dsp.Config
	opts     Options
	analyzer *analyzer.Analyzer
	registry *decoder.DecoderRegistry
	feedback analyzer.FeedbackProvider
	device   *capture.Device
	logger   *zap.Logger
}

// New 创建服务，feedback 可以为 nil
func New(cfg dsp.Config, opts Options, feedback analyzer.FeedbackProvider, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a, err := analyzer.NewAnalyzer(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		opts:     opts,
		analyzer: a,
		registry: decoder.NewDecoderRegistry(),
		feedback: feedback,
		device:   capture.NewDevice(),
		logger:   logger.Named("server"),
	}, nil
}

// Handler 返回路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze-voice", s.handleAnalyze)
	mux.HandleFunc("GET /api/live", s.handleLive)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// ListenAndServe 监听并服务，ctx 取消时优雅关闭
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("HTTP 服务已启动", zap.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.logger.Info("正在关闭 HTTP 服务")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
