package dsp

import (
	"fmt"
	"math"
	"strings"
)

// Window 窗函数类型
type Window int

const (
	WindowHann Window = iota
	WindowHamming
	WindowRectangular
)

// ParseWindow 解析窗函数名称，空字符串默认为汉宁窗
func ParseWindow(name string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hann", "hanning":
		return WindowHann, nil
	case "hamming":
		return WindowHamming, nil
	case "rect", "rectangular", "none":
		return WindowRectangular, nil
	default:
		return 0, fmt.Errorf("%w: 不支持的窗函数 %q", ErrInvalidParameters, name)
	}
}

func (w Window) String() string {
	switch w {
	case WindowHann:
		return "hann"
	case WindowHamming:
		return "hamming"
	case WindowRectangular:
		return "rectangular"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

// Coefficients 生成长度为 n 的窗系数
func (w Window) Coefficients(n int) []float64 {
	coeffs := make([]float64, n)
	if n == 1 {
		coeffs[0] = 1
		return coeffs
	}

	for i := range coeffs {
		phase := 2 * math.Pi * float64(i) / float64(n-1)
		switch w {
		case WindowHann:
			coeffs[i] = 0.5 - 0.5*math.Cos(phase)
		case WindowHamming:
			// 汉明窗: w(n) = 0.54 - 0.46 * cos(2π * n / (N-1))
			coeffs[i] = 0.54 - 0.46*math.Cos(phase)
		default:
			coeffs[i] = 1
		}
	}
	return coeffs
}
