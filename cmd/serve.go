package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voice-coach/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 分析服务",
	Long: `启动 HTTP 服务:
  POST /api/analyze-voice   上传录音 (multipart 字段 audio)
  GET  /api/live            WebSocket 实时分析 (float32 小端 PCM)
  GET  /healthz             健康检查`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "监听地址")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := newFeedbackProvider(ctx)
	if err != nil {
		return err
	}

	srv, err := server.New(appConfig.AnalysisConfig(), server.Options{
		Addr:              appConfig.Server.Addr,
		MaxUploadBytes:    appConfig.Server.MaxUploadBytes,
		ReadHeaderTimeout: appConfig.Server.ReadHeaderTimeout,
		ShutdownTimeout:   appConfig.Server.ShutdownTimeout,
		Personas:          appConfig.Coach.Personas,
	}, provider, logger)
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx)
}
