package analyzer

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"voice-coach/internal/types"
)

// 输出格式
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidateFormat 校验输出格式
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("不支持的输出格式: %s", format)
	}
}

// WriteResult 按格式输出单个分析结果。JSON 每个结果一行，YAML 以文档分隔符分隔
func WriteResult(w io.Writer, format string, result *types.AnalysisResult) error {
	switch format {
	case FormatJSON:
		jsonData, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("JSON序列化失败: %w", err)
		}
		_, err = fmt.Fprintln(w, string(jsonData))
		return err
	case FormatYAML:
		yamlData, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("YAML序列化失败: %w", err)
		}
		_, err = fmt.Fprintf(w, "---\n%s", yamlData)
		return err
	default:
		printDetailedResult(w, result)
		return nil
	}
}

// printDetailedResult 打印详细结果
func printDetailedResult(w io.Writer, result *types.AnalysisResult) {
	fmt.Fprintf(w, "\n=== %s ===\n", filepath.Base(result.FilePath))
	fmt.Fprintf(w, "路径: %s\n", result.FilePath)
	fmt.Fprintf(w, "格式: %s\n", result.Format)
	fmt.Fprintf(w, "状态: %s\n", result.Status)

	if result.Error != "" {
		fmt.Fprintf(w, "错误: %s\n", result.Error)
		return
	}

	if result.Metadata.Title != "" {
		fmt.Fprintf(w, "标题: %s\n", result.Metadata.Title)
	}
	if result.Metadata.Artist != "" {
		fmt.Fprintf(w, "说话人: %s\n", result.Metadata.Artist)
	}

	a := result.Analysis
	if a == nil {
		return
	}
	fmt.Fprintf(w, "采样率: %d Hz\n", a.SampleRate)
	fmt.Fprintf(w, "时长: %.2f 秒\n", a.DurationSeconds)
	fmt.Fprintf(w, "有声比例: %.1f%%\n", a.VoicedPercent)
	fmt.Fprintf(w, "基频: %.1f Hz\n", a.FundamentalFreqHz)
	fmt.Fprintf(w, "Jitter: %.2f%%\n", a.JitterPercent)
	fmt.Fprintf(w, "Shimmer: %.2f%%\n", a.ShimmerPercent)
	fmt.Fprintf(w, "清晰度: %d/100\n", a.ClarityScore)
	fmt.Fprintf(w, "频谱质心: %.0f Hz, 滚降: %.0f Hz\n", a.SpectralCentroidHz, a.SpectralRolloffHz)
	fmt.Fprintf(w, "过零率: %.4f, RMS: %.4f\n", a.ZeroCrossingRate, a.RMS)
	fmt.Fprintf(w, "共振峰: %s\n", formatFormants(a.Formants))

	if a.InsufficientData {
		fmt.Fprintf(w, "⚠️  有声数据不足，结果置信度低\n")
	}

	fmt.Fprintf(w, "建议:\n")
	for i, rec := range a.Recommendations {
		fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
	}

	if result.Feedback != "" {
		fmt.Fprintf(w, "教练反馈:\n%s\n", result.Feedback)
	}
}

func formatFormants(formants []types.Formant) string {
	if len(formants) == 0 {
		return "无"
	}
	parts := make([]string, len(formants))
	for i, f := range formants {
		parts[i] = fmt.Sprintf("F%d=%.0fHz(%.2f)", i+1, f.FrequencyHz, f.Amplitude)
	}
	return strings.Join(parts, " ")
}

// printSummary 打印统计摘要
func printSummary(w io.Writer, results []*types.AnalysisResult) {
	total := len(results)
	ok := 0
	low := 0
	errors := 0
	claritySum := 0

	for _, result := range results {
		switch result.Status {
		case types.StatusOK:
			ok++
			claritySum += result.Analysis.ClarityScore
		case types.StatusLowConfidence:
			low++
		case types.StatusError:
			errors++
		}
	}

	fmt.Fprintf(w, "\n=== 分析统计 ===\n")
	fmt.Fprintf(w, "总文件数: %d\n", total)
	fmt.Fprintf(w, "正常分析: %d\n", ok)
	fmt.Fprintf(w, "低置信度: %d\n", low)
	if errors > 0 {
		fmt.Fprintf(w, "错误文件: %d\n", errors)
	}
	if ok > 0 {
		fmt.Fprintf(w, "平均清晰度: %.1f/100\n", float64(claritySum)/float64(ok))
	}
}
