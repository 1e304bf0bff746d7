package decoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"

	"voice-coach/internal/types"
)

// FLACDecoder FLAC格式解码器
type FLACDecoder struct{}

// SupportedFormats 返回支持的格式
func (d *FLACDecoder) SupportedFormats() []string {
	return []string{"flac"}
}

// Decode 解码FLAC文件
func (d *FLACDecoder) Decode(filePath string) (types.AudioFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("打开FLAC文件失败: %w", err)
	}
	defer file.Close()

	audioFile, err := d.DecodeReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return audioFile, nil
}

// DecodeReader 解码FLAC数据流，同时解析 Vorbis 注释
func (d *FLACDecoder) DecodeReader(r io.ReadSeeker) (types.AudioFile, error) {
	stream, err := flac.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("解析FLAC文件失败: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	if info == nil {
		return nil, fmt.Errorf("无法读取FLAC信息")
	}

	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}

	samples := make([]float64, 0, info.NSamples)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解码FLAC帧失败: %w", err)
		}

		// 逐采样点平均所有声道
		for i := 0; i < len(frame.Subframes[0].Samples); i++ {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i])
			}
			samples = append(samples, sum/float64(channels)/scale)
		}
	}

	file := &decodedFile{
		format:   "FLAC",
		bitDepth: bitDepth,
		channels: channels,
		waveform: types.WaveformBuffer{
			Samples:    samples,
			SampleRate: int(info.SampleRate),
			Channels:   1,
		},
	}
	file.metadata = parseMetadata(stream.Blocks)
	file.metadata.Duration = file.GetDuration().String()
	return file, nil
}

// parseMetadata 解析FLAC元数据
func parseMetadata(blocks []*meta.Block) types.AudioMetadata {
	for _, block := range blocks {
		if block.Header.Type != meta.TypeVorbisComment {
			continue
		}
		if comment, ok := block.Body.(*meta.VorbisComment); ok {
			return types.AudioMetadata{
				Title:  getVorbisTag(comment, "TITLE"),
				Artist: getVorbisTag(comment, "ARTIST"),
				Album:  getVorbisTag(comment, "ALBUM"),
				Year:   getVorbisTag(comment, "DATE"),
				Genre:  getVorbisTag(comment, "GENRE"),
			}
		}
	}
	return types.AudioMetadata{}
}

// getVorbisTag 获取Vorbis注释标签，标签名不区分大小写
func getVorbisTag(comment *meta.VorbisComment, tag string) string {
	for _, field := range comment.Tags {
		if strings.EqualFold(field[0], tag) {
			return field[1]
		}
	}
	return ""
}
