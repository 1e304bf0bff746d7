package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"voice-coach/internal/capture"
	"voice-coach/internal/dsp"
	"voice-coach/internal/types"
)

// ErrLiveClosed 实时分析器已关闭
var ErrLiveClosed = errors.New("实时分析器已关闭")

type pendingBuffer struct {
	seq uint64
	buf types.WaveformBuffer
}

// Live 实时分析驱动：单个 worker 消费最新的缓冲区，积压时丢弃旧缓冲区。
// Push 永不阻塞，内存占用上限为一个待处理缓冲区加一个待读快照。
type Live struct {
	extractor *dsp.Extractor
	logger    *zap.Logger

	pending   chan pendingBuffer
	snapshots chan types.LiveSnapshot
	done      chan struct{}

	mu     sync.Mutex
	closed bool

	seq     atomic.Uint64
	dropped atomic.Uint64

	startOnce sync.Once
	closeOnce sync.Once
}

// NewLive 创建实时分析器，sampleRate 为输入缓冲区的固定采样率
func NewLive(cfg dsp.Config, sampleRate int, logger *zap.Logger) (*Live, error) {
	extractor, err := dsp.NewExtractor(cfg, sampleRate)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Live{
		extractor: extractor,
		logger:    logger.Named("live"),
		pending:   make(chan pendingBuffer, 1),
		snapshots: make(chan types.LiveSnapshot, 1),
		done:      make(chan struct{}),
	}, nil
}

// SampleRate 返回输入采样率
func (l *Live) SampleRate() int {
	return l.extractor.SampleRate()
}

// Snapshots 返回快照通道，Close 或 ctx 取消后关闭
func (l *Live) Snapshots() <-chan types.LiveSnapshot {
	return l.snapshots
}

// Dropped 返回因积压被丢弃的缓冲区数
func (l *Live) Dropped() uint64 {
	return l.dropped.Load()
}

// Start 启动 worker，重复调用无效
func (l *Live) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		go l.work(ctx)
	})
}

// Push 提交一个缓冲区。若上一个缓冲区尚未被处理，则替换它
func (l *Live) Push(buf types.WaveformBuffer) error {
	if buf.SampleRate != l.SampleRate() {
		return fmt.Errorf("%w: 缓冲区采样率 %d 与会话采样率 %d 不一致",
			dsp.ErrInvalidParameters, buf.SampleRate, l.SampleRate())
	}
	if len(buf.Samples) == 0 {
		return fmt.Errorf("%w: 空缓冲区", dsp.ErrInsufficientData)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLiveClosed
	}

	item := pendingBuffer{seq: l.seq.Add(1), buf: buf}
	for {
		select {
		case l.pending <- item:
			return nil
		default:
		}
		select {
		case <-l.pending:
			l.dropped.Add(1)
		default:
		}
	}
}

// Close 停止接收缓冲区，处理完最后一个待处理缓冲区后关闭快照通道
func (l *Live) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.pending)
		l.mu.Unlock()

		l.Start(context.Background())
	})
	<-l.done
}

// Run 从采集源持续读取并分析，采集源结束时关闭分析器并返回 nil
func (l *Live) Run(ctx context.Context, src capture.Source) error {
	l.Start(ctx)
	defer l.Close()

	for {
		buf, err := src.Read(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := l.Push(buf); err != nil {
			if errors.Is(err, ErrLiveClosed) {
				return err
			}
			l.logger.Warn("跳过缓冲区", zap.Error(err))
		}
	}
}

func (l *Live) work(ctx context.Context) {
	defer close(l.done)
	defer close(l.snapshots)

	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-l.pending:
			if !ok {
				return
			}
			features, err := extractFeatures(ctx, l.extractor, item.buf)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Warn("实时分析失败", zap.Uint64("seq", item.seq), zap.Error(err))
				continue
			}
			l.publish(dsp.Snapshot(item.seq, l.extractor.Config(), features))
		}
	}
}

// publish 替换尚未被读取的旧快照
func (l *Live) publish(snap types.LiveSnapshot) {
	select {
	case l.snapshots <- snap:
		return
	default:
	}
	select {
	case <-l.snapshots:
	default:
	}
	l.snapshots <- snap
}
