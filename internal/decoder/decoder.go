package decoder

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"voice-coach/internal/types"
)

// AudioDecoder 音频解码器接口。解码是一次性的：返回的文件已持有完整的单声道波形
type AudioDecoder interface {
	Decode(filePath string) (types.AudioFile, error)
	DecodeReader(r io.ReadSeeker) (types.AudioFile, error)
	SupportedFormats() []string
}

// DecoderRegistry 解码器注册表
type DecoderRegistry struct {
	decoders map[string]AudioDecoder
}

// NewDecoderRegistry 创建新的解码器注册表
func NewDecoderRegistry() *DecoderRegistry {
	registry := &DecoderRegistry{
		decoders: make(map[string]AudioDecoder),
	}

	// 注册支持的解码器
	registry.Register(&WAVDecoder{})
	registry.Register(&FLACDecoder{})

	return registry
}

// Register 注册解码器
func (r *DecoderRegistry) Register(decoder AudioDecoder) {
	for _, format := range decoder.SupportedFormats() {
		r.decoders[strings.ToLower(format)] = decoder
	}
}

// SupportedExtensions 返回所有支持的文件扩展名（带点号）
func (r *DecoderRegistry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.decoders))
	for format := range r.decoders {
		exts = append(exts, "."+format)
	}
	sort.Strings(exts)
	return exts
}

// GetDecoder 根据文件扩展名获取解码器
func (r *DecoderRegistry) GetDecoder(filePath string) (AudioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return nil, fmt.Errorf("无法确定文件格式: %s", filePath)
	}

	return r.ForFormat(ext[1:])
}

// ForFormat 根据格式名获取解码器
func (r *DecoderRegistry) ForFormat(format string) (AudioDecoder, error) {
	decoder, exists := r.decoders[strings.ToLower(format)]
	if !exists {
		return nil, fmt.Errorf("不支持的音频格式: %s", format)
	}
	return decoder, nil
}

// FormatFor 根据上传的 Content-Type 和文件名判断格式，优先使用 Content-Type
func (r *DecoderRegistry) FormatFor(contentType, fileName string) (string, error) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
			return "wav", nil
		case "audio/flac", "audio/x-flac":
			return "flac", nil
		}
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext != "" {
		if _, ok := r.decoders[ext[1:]]; ok {
			return ext[1:], nil
		}
	}
	return "", fmt.Errorf("不支持的音频类型: %q (%s)", contentType, fileName)
}

// DecodeFile 解码音频文件
func (r *DecoderRegistry) DecodeFile(filePath string) (types.AudioFile, error) {
	decoder, err := r.GetDecoder(filePath)
	if err != nil {
		return nil, err
	}

	return decoder.Decode(filePath)
}

// DecodeReader 按指定格式解码数据流
func (r *DecoderRegistry) DecodeReader(format string, rs io.ReadSeeker) (types.AudioFile, error) {
	decoder, err := r.ForFormat(format)
	if err != nil {
		return nil, err
	}

	return decoder.DecodeReader(rs)
}

// decodedFile 已完整解码的音频文件
type decodedFile struct {
	format   string
	bitDepth int
	channels int
	waveform types.WaveformBuffer
	metadata types.AudioMetadata
}

func (f *decodedFile) GetFormat() string {
	return f.format
}

func (f *decodedFile) GetSampleRate() int {
	return f.waveform.SampleRate
}

func (f *decodedFile) GetBitDepth() int {
	return f.bitDepth
}

func (f *decodedFile) GetChannels() int {
	return f.channels
}

func (f *decodedFile) GetDuration() time.Duration {
	return f.waveform.Duration()
}

// GetWaveform 返回单声道波形
func (f *decodedFile) GetWaveform() (types.WaveformBuffer, error) {
	return f.waveform, nil
}

func (f *decodedFile) GetMetadata() types.AudioMetadata {
	return f.metadata
}

func (f *decodedFile) Close() error {
	return nil
}

// fullScale 返回给定位深的满幅值
func fullScale(bitDepth int) (float64, error) {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0, fmt.Errorf("不支持的位深度: %d", bitDepth)
	}
	return float64(int64(1) << uint(bitDepth-1)), nil
}

// downmix 将交错的多声道整数采样平均为单声道并归一化到 [-1, 1]
func downmix(interleaved []int, channels int, scale float64) []float64 {
	if channels <= 1 {
		samples := make([]float64, len(interleaved))
		for i, v := range interleaved {
			samples[i] = float64(v) / scale
		}
		return samples
	}

	samples := make([]float64, len(interleaved)/channels)
	for i := range samples {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(interleaved[i*channels+ch])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return samples
}
