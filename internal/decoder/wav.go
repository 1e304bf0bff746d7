package decoder

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	"voice-coach/internal/types"
)

// WAV fmt 块中的编码格式
const (
	wavFormatPCM        = 0x0001
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder WAV格式解码器，支持整数PCM（含 WAVE_FORMAT_EXTENSIBLE）
type WAVDecoder struct{}

// SupportedFormats 返回支持的格式
func (d *WAVDecoder) SupportedFormats() []string {
	return []string{"wav"}
}

// Decode 解码WAV文件
func (d *WAVDecoder) Decode(filePath string) (types.AudioFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("打开WAV文件失败: %w", err)
	}
	defer file.Close()

	audioFile, err := d.DecodeReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return audioFile, nil
}

// DecodeReader 解码WAV数据流
func (d *WAVDecoder) DecodeReader(r io.ReadSeeker) (types.AudioFile, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("无效的WAV文件")
	}
	if !isIntegerPCM(decoder.WavAudioFormat) {
		return nil, fmt.Errorf("不支持的WAV编码格式: %d", decoder.WavAudioFormat)
	}

	channels := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)
	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("读取WAV数据失败: %w", err)
	}

	// 8 位 WAV 为无符号采样，以 128 为零点
	if bitDepth == 8 {
		for i := range buf.Data {
			buf.Data[i] -= 128
		}
	}

	file := &decodedFile{
		format:   "WAV",
		bitDepth: bitDepth,
		channels: channels,
		waveform: types.WaveformBuffer{
			Samples:    downmix(buf.Data, channels, scale),
			SampleRate: int(decoder.SampleRate),
			Channels:   1,
		},
	}
	// WAV文件的元数据支持有限，这里返回基本信息
	file.metadata = types.AudioMetadata{Duration: file.GetDuration().String()}
	return file, nil
}

func isIntegerPCM(format uint16) bool {
	return format == wavFormatPCM || format == wavFormatExtensible
}
