package capture

import (
	"context"
	"errors"
	"sync"

	"voice-coach/internal/types"
)

var (
	// ErrAlreadyCapturing 设备已被另一个会话占用
	ErrAlreadyCapturing = errors.New("采集设备正在使用")

	// ErrSessionClosed 会话已关闭
	ErrSessionClosed = errors.New("采集会话已关闭")
)

// Source 音频采集源。Read 阻塞直到下一个缓冲区就绪，数据结束时返回 io.EOF。
type Source interface {
	SampleRate() int
	Read(ctx context.Context) (types.WaveformBuffer, error)
}

// Device 独占式采集设备，同一时刻只允许一个会话
type Device struct {
	mu     sync.Mutex
	active *Session
}

// NewDevice 创建采集设备
func NewDevice() *Device {
	return &Device{}
}

// Open 在设备上打开一个采集会话
func (d *Device) Open(src Source) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil {
		return nil, ErrAlreadyCapturing
	}
	s := &Session{source: src, device: d, closed: make(chan struct{})}
	d.active = s
	return s, nil
}

// Active 返回设备当前是否有会话
func (d *Device) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active != nil
}

func (d *Device) release(s *Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == s {
		d.active = nil
	}
}

// Session 设备上的一次采集会话，实现 Source
type Session struct {
	source Source
	device *Device
	once   sync.Once
	closed chan struct{}
}

// SampleRate 返回采集源采样率
func (s *Session) SampleRate() int {
	return s.source.SampleRate()
}

// Read 从采集源读取下一个缓冲区，会话关闭后返回 ErrSessionClosed
func (s *Session) Read(ctx context.Context) (types.WaveformBuffer, error) {
	select {
	case <-s.closed:
		return types.WaveformBuffer{}, ErrSessionClosed
	default:
	}
	return s.source.Read(ctx)
}

// Close 释放设备，可重复调用
func (s *Session) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.device.release(s)
	})
	return nil
}
