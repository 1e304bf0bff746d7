package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voice-coach/internal/analyzer"
	"voice-coach/internal/capture"
	"voice-coach/internal/decoder"
	"voice-coach/internal/types"
)

var (
	noPace   bool
	liveJSON bool
)

var liveCmd = &cobra.Command{
	Use:   "live [file]",
	Short: "以实时采集的方式回放录音并输出逐块特征",
	Args:  cobra.ExactArgs(1),
	RunE:  runLive,
}

func init() {
	liveCmd.Flags().Int("buffer", 4096, "每个采集缓冲区的样本数")
	liveCmd.Flags().BoolVar(&noPace, "no-pace", false, "不按实时速度回放")
	liveCmd.Flags().BoolVar(&liveJSON, "json", false, "以JSON格式逐行输出快照")

	rootCmd.AddCommand(liveCmd)
}

func runLive(cmd *cobra.Command, args []string) error {
	audioFile, err := decoder.NewDecoderRegistry().DecodeFile(args[0])
	if err != nil {
		return err
	}
	defer audioFile.Close()

	waveform, err := audioFile.GetWaveform()
	if err != nil {
		return err
	}

	pace := appConfig.Live.Pace && !noPace
	src, err := capture.NewFileSource(waveform, appConfig.Live.BufferSize, pace)
	if err != nil {
		return err
	}

	session, err := capture.NewDevice().Open(src)
	if err != nil {
		return err
	}
	defer session.Close()

	live, err := analyzer.NewLive(appConfig.AnalysisConfig(), waveform.SampleRate, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- live.Run(ctx, session)
	}()

	out := cmd.OutOrStdout()
	writeErr := drainSnapshots(live.Snapshots(), stop, func(snap types.LiveSnapshot) error {
		return writeSnapshot(out, snap, liveJSON)
	})
	runErr := <-errCh
	if writeErr != nil {
		return writeErr
	}

	logger.Info("回放结束", zap.Uint64("dropped", live.Dropped()))
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return nil
}

// drainSnapshots 逐个输出快照直到通道关闭。输出失败时取消采集，其余快照被丢弃
func drainSnapshots(snapshots <-chan types.LiveSnapshot, cancel context.CancelFunc, write func(types.LiveSnapshot) error) error {
	var writeErr error
	for snap := range snapshots {
		if writeErr != nil {
			continue
		}
		if writeErr = write(snap); writeErr != nil {
			cancel()
		}
	}
	return writeErr
}

func writeSnapshot(w io.Writer, snap types.LiveSnapshot, asJSON bool) error {
	if !asJSON {
		printSnapshot(w, snap)
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("编码快照失败: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printSnapshot(w io.Writer, snap types.LiveSnapshot) {
	pitch := "  -  "
	if snap.Voiced {
		pitch = fmt.Sprintf("%5.1f", snap.FundamentalFreqHz)
	}
	fmt.Fprintf(w, "#%-5d 基频 %s Hz  置信度 %.2f  质心 %6.0f Hz  滚降 %6.0f Hz  过零率 %.3f  RMS %.4f\n",
		snap.Sequence, pitch, snap.Confidence, snap.SpectralCentroidHz, snap.SpectralRolloffHz,
		snap.ZeroCrossingRate, snap.RMS)
}
