package capture

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeFloat32LE 将小端 float32 单声道 PCM 字节流解码为采样值
func DecodeFloat32LE(data []byte) ([]float64, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("PCM 数据长度 %d 不是4的倍数", len(data))
	}
	samples := make([]float64, len(data)/4)
	for i := range samples {
		v := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		samples[i] = v
	}
	return samples, nil
}

// EncodeFloat32LE 将采样值编码为小端 float32 字节流
func EncodeFloat32LE(samples []float64) []byte {
	data := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(float32(v)))
	}
	return data
}
