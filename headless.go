package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"swapstudio/internal/config"
	"swapstudio/internal/media"
	"swapstudio/internal/models"
	"swapstudio/internal/ui/core"
	"swapstudio/processing/frame"
	"swapstudio/processing/pipeline"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) runHeadless(ctx context.Context, cmd *cobra.Command) error {
	client := pipeline.NewClient(c.cfg.Snapshot().PipelineAddr, c.logger)
	client.Start()
	defer client.Stop()

	h := headless{
		cfg:        c.cfg,
		processors: c.loader(),
		runner:     client,
		log:        c.logger,
	}
	if store := c.openHistory(); store != nil {
		h.history = store
		defer store.Close()
	}

	res, err := h.run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s written in %s\n", res.OutputPath, res.Elapsed.Round(time.Millisecond))
	return nil
}

// headless runs one job from the current settings without a window.
type headless struct {
	cfg        *config.Config
	processors *frame.Loader
	runner     core.Runner
	history    core.History
	log        *zap.Logger
}

func (h headless) run(ctx context.Context) (models.Result, error) {
	s := h.cfg.Snapshot()

	if !media.IsImage(s.SourcePath) {
		return models.Result{}, fmt.Errorf("source %q is not an image", s.SourcePath)
	}
	if media.Detect(s.TargetPath) == media.KindNone {
		return models.Result{}, fmt.Errorf("target %q is not an image or video", s.TargetPath)
	}

	output := media.NormalizeOutputPath(s.SourcePath, s.TargetPath, s.OutputPath)
	h.cfg.SetOutputPath(output)
	s.OutputPath = output

	modules, err := h.processors.LoadAll(ctx, s.FrameProcessors)
	if err != nil {
		return models.Result{}, err
	}
	for _, m := range modules {
		if err := m.PreStart(ctx, s); err != nil {
			return models.Result{}, fmt.Errorf("%s: %w", m.Name(), err)
		}
	}
	defer func() {
		for _, m := range modules {
			m.PostProcess(ctx)
		}
	}()

	job := h.cfg.Job(uuid.NewString())
	started := time.Now()
	h.log.Info("starting job", zap.String("id", job.ID), zap.String("output", job.OutputPath),
		zap.Strings("frame_processors", job.FrameProcessors))

	res, err := h.runner.Run(ctx, job, func(p models.Progress) {
		h.log.Info("progress", zap.String("stage", p.Stage),
			zap.Int("done", p.Done), zap.Int("total", p.Total))
	})
	if res.OutputPath == "" {
		res.OutputPath = output
	}
	if res.Elapsed == 0 {
		res.Elapsed = time.Since(started)
	}
	h.record(ctx, job, res, started, err)

	return res, err
}

func (h headless) record(ctx context.Context, job models.Job, res models.Result, started time.Time, runErr error) {
	e := models.HistoryEntry{
		ID:         job.ID,
		SourcePath: job.SourcePath,
		TargetPath: job.TargetPath,
		OutputPath: res.OutputPath,
		Status:     models.RunSucceeded,
		StartedAt:  started,
		Duration:   time.Since(started),
	}
	if runErr != nil {
		e.Status, e.Error = models.RunFailed, runErr.Error()
	} else if fi, err := os.Stat(res.OutputPath); err == nil {
		e.OutputSize = fi.Size()
		h.log.Info("job done", zap.String("output", res.OutputPath), zap.String("size", humanize.Bytes(uint64(fi.Size()))))
	}

	if h.history == nil {
		return
	}
	if err := h.history.Record(ctx, e); err != nil {
		h.log.Warn("failed to record run", zap.Error(err))
	}
}
