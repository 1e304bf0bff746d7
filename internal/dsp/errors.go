package dsp

import "errors"

var (
	// ErrInvalidParameters 帧长、步长或采样率配置非法，调用方必须修正配置
	ErrInvalidParameters = errors.New("参数非法")

	// ErrInsufficientData 录音过短或完全无声，分析结果仍会返回并带有标记
	ErrInsufficientData = errors.New("有声数据不足")

	// ErrNumericDegenerate 数值退化（如静音导致全零频谱），以零值描述符代替
	ErrNumericDegenerate = errors.New("数值退化")
)
