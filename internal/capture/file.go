package capture

import (
	"context"
	"fmt"
	"io"
	"time"

	"voice-coach/internal/types"
)

// FileSource 将已解码的录音切成固定大小的缓冲区回放，可按实时速度节拍输出
type FileSource struct {
	buf        types.WaveformBuffer
	bufferSize int
	pace       bool
	offset     int
	ticker     *time.Ticker
}

// NewFileSource 创建回放源。bufferSize 为每次 Read 返回的样本数
func NewFileSource(buf types.WaveformBuffer, bufferSize int, pace bool) (*FileSource, error) {
	if buf.SampleRate <= 0 {
		return nil, fmt.Errorf("采样率非法: %d", buf.SampleRate)
	}
	if bufferSize <= 0 {
		return nil, fmt.Errorf("缓冲区大小非法: %d", bufferSize)
	}
	return &FileSource{buf: buf, bufferSize: bufferSize, pace: pace}, nil
}

// SampleRate 返回采样率
func (f *FileSource) SampleRate() int {
	return f.buf.SampleRate
}

// Interval 返回一个缓冲区对应的实时时长
func (f *FileSource) Interval() time.Duration {
	return time.Duration(float64(f.bufferSize) / float64(f.buf.SampleRate) * float64(time.Second))
}

// Read 返回下一个缓冲区，最后一个缓冲区可能不足 bufferSize
func (f *FileSource) Read(ctx context.Context) (types.WaveformBuffer, error) {
	if f.offset >= len(f.buf.Samples) {
		f.stop()
		return types.WaveformBuffer{}, io.EOF
	}

	if f.pace {
		if f.ticker == nil {
			f.ticker = time.NewTicker(f.Interval())
		} else {
			select {
			case <-ctx.Done():
				f.stop()
				return types.WaveformBuffer{}, ctx.Err()
			case <-f.ticker.C:
			}
		}
	} else if err := ctx.Err(); err != nil {
		return types.WaveformBuffer{}, err
	}

	end := min(f.offset+f.bufferSize, len(f.buf.Samples))
	samples := make([]float64, end-f.offset)
	copy(samples, f.buf.Samples[f.offset:end])
	f.offset = end

	return types.WaveformBuffer{
		Samples:    samples,
		SampleRate: f.buf.SampleRate,
		Channels:   1,
	}, nil
}

func (f *FileSource) stop() {
	if f.ticker != nil {
		f.ticker.Stop()
		f.ticker = nil
	}
}
