package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"voice-coach/internal/decoder"
	"voice-coach/internal/types"
)

// FeedbackProvider 根据分析结果生成教练文本的外部服务
type FeedbackProvider interface {
	Feedback(ctx context.Context, analysis *types.UtteranceAnalysis) (string, error)
}

// BatchRunner 批量文件分析器
type BatchRunner struct {
	config          *types.AnalyzerConfig
	analyzer        *Analyzer
	decoderRegistry *decoder.DecoderRegistry
	feedback        FeedbackProvider
	logger          *zap.Logger
	out             io.Writer
}

// NewBatchRunner 创建批量分析器，feedback 可以为 nil
func NewBatchRunner(config *types.AnalyzerConfig, analyzer *Analyzer, feedback FeedbackProvider, logger *zap.Logger) *BatchRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &BatchRunner{
		config:          config,
		analyzer:        analyzer,
		decoderRegistry: decoder.NewDecoderRegistry(),
		feedback:        feedback,
		logger:          logger.Named("batch"),
		out:             os.Stdout,
	}
}

// SetOutput 设置结果输出位置
func (b *BatchRunner) SetOutput(w io.Writer) {
	b.out = w
}

// AnalyzeFiles 分析多个音频文件，单个文件失败记录在结果中而不中断整体
func (b *BatchRunner) AnalyzeFiles(ctx context.Context, filePaths []string) ([]*types.AnalysisResult, error) {
	// 创建进度条
	var bar *progressbar.ProgressBar
	if !b.config.Quiet && b.config.OutputFormat == FormatText {
		bar = progressbar.NewOptions(len(filePaths),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("分析语音文件"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowIts(),
		)
	}

	jobs := make(chan string, len(filePaths))
	results := make(chan *types.AnalysisResult, len(filePaths))

	var wg sync.WaitGroup
	for i := 0; i < b.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for filePath := range jobs {
				results <- b.analyzeFile(ctx, filePath)
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}

	go func() {
		for _, filePath := range filePaths {
			jobs <- filePath
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var allResults []*types.AnalysisResult
	for result := range results {
		allResults = append(allResults, result)
		if err := b.outputResult(result); err != nil {
			b.logger.Warn("输出结果失败", zap.String("file", result.FilePath), zap.Error(err))
		}
	}

	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	if !b.config.Quiet && b.config.OutputFormat == FormatText {
		printSummary(b.out, allResults)
	}

	return allResults, ctx.Err()
}

// analyzeFile 分析单个音频文件
func (b *BatchRunner) analyzeFile(ctx context.Context, filePath string) *types.AnalysisResult {
	result := &types.AnalysisResult{
		FilePath: filePath,
		Status:   types.StatusError,
	}

	audioFile, err := b.decoderRegistry.DecodeFile(filePath)
	if err != nil {
		result.Error = fmt.Sprintf("解码失败: %v", err)
		return result
	}
	defer audioFile.Close()

	result.Format = audioFile.GetFormat()
	result.Metadata = audioFile.GetMetadata()

	waveform, err := audioFile.GetWaveform()
	if err != nil {
		result.Error = fmt.Sprintf("读取音频数据失败: %v", err)
		return result
	}

	analysis, err := b.analyzer.Analyze(ctx, waveform)
	if err != nil {
		result.Error = fmt.Sprintf("语音分析失败: %v", err)
		return result
	}
	result.Analysis = analysis

	if analysis.InsufficientData {
		result.Status = types.StatusLowConfidence
	} else {
		result.Status = types.StatusOK
	}

	if b.config.Feedback && b.feedback != nil && !analysis.InsufficientData {
		text, err := b.feedback.Feedback(ctx, analysis)
		if err != nil {
			b.logger.Warn("获取教练反馈失败", zap.String("file", filePath), zap.Error(err))
		} else {
			result.Feedback = text
		}
	}

	b.logger.Debug("文件分析完成",
		zap.String("file", filePath),
		zap.String("status", result.Status),
		zap.Int("clarity", analysis.ClarityScore),
	)
	return result
}

// outputResult 输出单个分析结果
func (b *BatchRunner) outputResult(result *types.AnalysisResult) error {
	if b.config.OnlyLowConfidence && result.Status == types.StatusOK {
		return nil
	}

	// 静默模式，只输出低置信度或失败的文件路径
	if b.config.Quiet {
		if result.Status != types.StatusOK {
			fmt.Fprintln(b.out, result.FilePath)
		}
		return nil
	}

	return WriteResult(b.out, b.config.OutputFormat, result)
}
