package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voice-coach/internal/analyzer"
	"voice-coach/internal/types"
)

var (
	quiet             bool
	onlyLowConfidence bool
	jsonOutput        bool
	feedback          bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "分析录音文件或目录",
	Long: `分析单个录音文件，或递归分析目录下所有支持的音频文件。
每个文件输出基频、jitter、shimmer、清晰度评分、共振峰和练习建议。`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "静默模式，仅输出低置信度或失败的文件路径")
	analyzeCmd.Flags().BoolVar(&onlyLowConfidence, "only-low-confidence", false, "只显示低置信度或失败的结果")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "以JSON格式输出结果 (等同于 -o json)")
	analyzeCmd.Flags().BoolVar(&feedback, "feedback", false, "请求AI教练反馈")
	analyzeCmd.Flags().IntP("concurrency", "j", runtime.NumCPU(), "并发处理文件数量")
	analyzeCmd.Flags().Int("frame-length", 2048, "分析帧长 (2的幂)")
	analyzeCmd.Flags().Int("hop", 1024, "帧移")
	analyzeCmd.Flags().String("window", "hann", "窗函数 (hann, hamming, rectangular)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	// 检查路径是否存在
	if _, err := os.Stat(targetPath); os.IsNotExist(err) {
		return fmt.Errorf("路径不存在: %s", targetPath)
	}

	format := appConfig.OutputFormat
	if jsonOutput {
		format = analyzer.FormatJSON
	}
	if err := analyzer.ValidateFormat(format); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	audioAnalyzer, err := analyzer.NewAnalyzer(appConfig.AnalysisConfig(), logger)
	if err != nil {
		return fmt.Errorf("创建分析器失败: %w", err)
	}

	var provider analyzer.FeedbackProvider
	if feedback {
		provider, err = newFeedbackProvider(ctx)
		if err != nil {
			return err
		}
		if provider == nil {
			logger.Warn("未配置 coach.api_key，跳过教练反馈")
		}
	}

	runner := analyzer.NewBatchRunner(&types.AnalyzerConfig{
		Concurrency:       appConfig.Concurrency,
		Quiet:             quiet,
		OnlyLowConfidence: onlyLowConfidence,
		OutputFormat:      format,
		Feedback:          feedback,
	}, audioAnalyzer, provider, logger)

	// 收集音频文件
	files, err := collectAudioFiles(targetPath)
	if err != nil {
		return fmt.Errorf("收集音频文件失败: %w", err)
	}

	if len(files) == 0 {
		fmt.Println("未找到支持的音频文件")
		return nil
	}

	logger.Debug("开始批量分析", zap.Int("files", len(files)), zap.Int("concurrency", appConfig.Concurrency))

	// 开始分析
	_, err = runner.AnalyzeFiles(ctx, files)
	return err
}
