package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"voice-coach/internal/analyzer"
	"voice-coach/internal/capture"
	"voice-coach/internal/types"
)

// wsSource 将 WebSocket 二进制消息作为采集源
type wsSource struct {
	conn       *websocket.Conn
	sampleRate int
}

func (s *wsSource) SampleRate() int {
	return s.sampleRate
}

// Read 读取下一条二进制消息，忽略文本消息。客户端正常关闭时返回 io.EOF
func (s *wsSource) Read(ctx context.Context) (types.WaveformBuffer, error) {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return types.WaveformBuffer{}, io.EOF
			}
			return types.WaveformBuffer{}, err
		}
		if typ != websocket.MessageBinary {
			continue
		}

		samples, err := capture.DecodeFloat32LE(data)
		if err != nil {
			return types.WaveformBuffer{}, err
		}
		return types.WaveformBuffer{Samples: samples, SampleRate: s.sampleRate, Channels: 1}, nil
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	sampleRate, err := strconv.Atoi(r.URL.Query().Get("sampleRate"))
	if err != nil || sampleRate <= 0 {
		writeError(w, http.StatusBadRequest, "sampleRate must be a positive integer")
		return
	}

	live, err := analyzer.NewLive(s.cfg, sampleRate, s.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	src := &wsSource{sampleRate: sampleRate}
	session, err := s.device.Open(src)
	if err != nil {
		if errors.Is(err, capture.ErrAlreadyCapturing) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer session.Close()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Warn("WebSocket 握手失败", zap.Error(err))
		live.Close()
		return
	}
	src.conn = conn

	s.logger.Info("实时会话开始", zap.Int("sampleRate", sampleRate))
	err = s.streamSnapshots(r.Context(), conn, live, session)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Info("实时会话异常结束", zap.Error(err))
		conn.Close(websocket.StatusInternalError, "analysis stopped")
	} else {
		conn.Close(websocket.StatusNormalClosure, "")
	}
	s.logger.Info("实时会话结束", zap.Uint64("dropped", live.Dropped()))
}

// streamSnapshots 一个 goroutine 读取 PCM 并分析，另一个回写快照
func (s *Server) streamSnapshots(ctx context.Context, conn *websocket.Conn, live *analyzer.Live, src capture.Source) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return live.Run(gctx, src)
	})
	g.Go(func() error {
		for snap := range live.Snapshots() {
			data, err := json.Marshal(snap)
			if err != nil {
				return fmt.Errorf("序列化快照失败: %w", err)
			}
			if err := conn.Write(gctx, websocket.MessageText, data); err != nil {
				return err
			}
		}
		return nil
	})
	return g.Wait()
}
