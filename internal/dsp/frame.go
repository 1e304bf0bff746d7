package dsp

import (
	"fmt"

	"voice-coach/internal/types"
)

// Frame 一个分析帧，Samples 长度恒为帧长，尾部不足部分补零
type Frame struct {
	Index   int
	Start   int
	Samples []float64
	Valid   int // 非补零样本数
}

// Signal 返回帧内的有效样本
func (f Frame) Signal() []float64 {
	return f.Samples[:f.Valid]
}

// Framer 将波形切分为重叠帧，惰性、有限、可重启
type Framer struct {
	samples     []float64
	frameLength int
	hop         int
	next        int
	index       int
}

// NewFramer 创建分帧器
func NewFramer(buf types.WaveformBuffer, frameLength, hop int) (*Framer, error) {
	if err := validateSampleRate(buf.SampleRate); err != nil {
		return nil, err
	}
	if frameLength <= 0 || hop <= 0 {
		return nil, fmt.Errorf("%w: 帧长和步长必须为正 (%d, %d)", ErrInvalidParameters, frameLength, hop)
	}
	if hop > frameLength {
		return nil, fmt.Errorf("%w: 步长 %d 大于帧长 %d", ErrInvalidParameters, hop, frameLength)
	}
	if !isPowerOfTwo(frameLength) {
		return nil, fmt.Errorf("%w: 帧长 %d 不是2的幂", ErrInvalidParameters, frameLength)
	}
	return &Framer{
		samples:     buf.Samples,
		frameLength: frameLength,
		hop:         hop,
	}, nil
}

// Next 返回下一帧，序列结束时第二个返回值为 false
func (f *Framer) Next() (Frame, bool) {
	if f.next >= len(f.samples) {
		return Frame{}, false
	}

	frame := Frame{
		Index:   f.index,
		Start:   f.next,
		Samples: make([]float64, f.frameLength),
	}
	frame.Valid = copy(frame.Samples, f.samples[f.next:])

	f.next += f.hop
	f.index++
	return frame, true
}

// Reset 重新从头分帧
func (f *Framer) Reset() {
	f.next = 0
	f.index = 0
}

// Count 返回总帧数
func (f *Framer) Count() int {
	n := len(f.samples)
	if n == 0 {
		return 0
	}
	return (n + f.hop - 1) / f.hop
}

// FrameLength 返回帧长
func (f *Framer) FrameLength() int {
	return f.frameLength
}
