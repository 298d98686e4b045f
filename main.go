package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"swapstudio/internal/config"
	"swapstudio/internal/history"
	"swapstudio/internal/ui"
	"swapstudio/internal/ui/core"
	"swapstudio/processing/capture"
	"swapstudio/processing/frame"
	"swapstudio/processing/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	configPath string
	verbose    bool

	source, target, output string
	frameProcessors        []string
	uiLayouts              []string
	executionProviders     []string
	threadCount            int
	queueCount             int
	keepFPS, keepTemp      bool
	skipAudio, manyFaces   bool
	referenceFacePosition  int
	referenceFrameNumber   int
	similarFaceDistance    float64
	trimFrameStart         int
	trimFrameEnd           int
	pipelineAddr           string

	logger *zap.Logger
	cfg    *config.Config
}

func newRootCmd() *cobra.Command {
	return newCommand(&cli{})
}

func newCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "swapstudio",
		Short:        "Face swap studio",
		Long:         "Swaps the face of a source image into a target image or video. Runs headless when source, target and output are given, otherwise opens the studio window.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zc := zap.NewProductionConfig()
			if c.verbose {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			if c.logger, err = zc.Build(); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			if c.cfg, err = config.LoadConfigFile(c.configPath); err != nil {
				return err
			}
			return c.apply(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if c.headless(cmd) {
				return c.runHeadless(ctx, cmd)
			}
			return c.runUI(ctx)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&c.configPath, "config", config.DefaultConfigPath, "Config file (.json, .toml, .yaml)")
	f.BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")

	rf := root.Flags()
	rf.StringVarP(&c.source, "source", "s", "", "Source image")
	rf.StringVarP(&c.target, "target", "t", "", "Target image or video")
	rf.StringVarP(&c.output, "output", "o", "", "Output file or directory")
	rf.StringSliceVar(&c.frameProcessors, "frame-processor", nil, "Frame processors, in order")
	rf.StringSliceVar(&c.uiLayouts, "ui-layout", nil, "UI layouts")
	rf.StringSliceVar(&c.executionProviders, "execution-provider", nil, "Execution providers")
	rf.IntVar(&c.threadCount, "execution-thread-count", 0, "Execution threads")
	rf.IntVar(&c.queueCount, "execution-queue-count", 0, "Frames each thread processes at once")
	rf.BoolVar(&c.keepFPS, "keep-fps", false, "Keep the frame rate of the target")
	rf.BoolVar(&c.keepTemp, "keep-temp", false, "Keep temporary frames")
	rf.BoolVar(&c.skipAudio, "skip-audio", false, "Drop the audio of the target")
	rf.BoolVar(&c.manyFaces, "many-faces", false, "Swap every face")
	rf.IntVar(&c.referenceFacePosition, "reference-face-position", 0, "Position of the reference face")
	rf.IntVar(&c.referenceFrameNumber, "reference-frame-number", 0, "Frame of the reference face")
	rf.Float64Var(&c.similarFaceDistance, "similar-face-distance", 0, "Face distance still counted as the reference")
	rf.IntVar(&c.trimFrameStart, "trim-frame-start", 0, "First frame of the target")
	rf.IntVar(&c.trimFrameEnd, "trim-frame-end", 0, "Last frame of the target")
	rf.StringVar(&c.pipelineAddr, "pipeline", "", "Address of the inference service")

	root.AddCommand(&cobra.Command{
		Use:   "layouts",
		Short: "List UI layouts",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range core.ListLayoutNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "processors",
		Short: "List frame processors",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range c.loader().ListNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	})

	return root
}

// apply copies the flags given on the command line over the config file.
func (c *cli) apply(cmd *cobra.Command) error {
	changed := func(name string) bool { return flagChanged(cmd, name) }
	cfg := c.cfg

	if changed("source") {
		cfg.SetSourcePath(c.source)
	}
	if changed("target") {
		cfg.SetTargetPath(c.target)
	}
	if changed("output") {
		cfg.SetOutputPath(c.output)
	}
	if changed("frame-processor") {
		cfg.SetFrameProcessors(c.frameProcessors)
	}
	if changed("ui-layout") {
		cfg.SetUILayouts(c.uiLayouts)
	}
	if changed("execution-provider") {
		cfg.SetExecutionProviders(c.executionProviders)
	}
	if changed("execution-thread-count") {
		cfg.SetExecutionThreadCount(c.threadCount)
	}
	if changed("execution-queue-count") {
		cfg.SetExecutionQueueCount(c.queueCount)
	}
	if changed("reference-face-position") {
		cfg.SetReferenceFacePosition(c.referenceFacePosition)
	}
	if changed("reference-frame-number") {
		cfg.SetReferenceFrameNumber(c.referenceFrameNumber)
	}
	if changed("similar-face-distance") {
		cfg.SetSimilarFaceDistance(c.similarFaceDistance)
	}
	if changed("trim-frame-start") {
		cfg.SetTrimFrameStart(c.trimFrameStart)
	}
	if changed("trim-frame-end") {
		cfg.SetTrimFrameEnd(c.trimFrameEnd)
	}
	if changed("pipeline") {
		s := cfg.Snapshot()
		s.PipelineAddr = c.pipelineAddr
		cfg.Replace(s)
	}

	flags := map[string]struct {
		flag  config.Flag
		value bool
	}{
		"keep-fps":   {config.FlagKeepFPS, c.keepFPS},
		"keep-temp":  {config.FlagKeepTemp, c.keepTemp},
		"skip-audio": {config.FlagSkipAudio, c.skipAudio},
		"many-faces": {config.FlagManyFaces, c.manyFaces},
	}
	for name, f := range flags {
		if !changed(name) {
			continue
		}
		if err := cfg.SetFlag(f.flag, f.value); err != nil {
			return err
		}
	}
	return nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	fl := cmd.Flags().Lookup(name)
	return fl != nil && fl.Changed
}

// headless reports whether this invocation names a job on the command line.
// Paths restored from the config file of an earlier session never do.
func (c *cli) headless(cmd *cobra.Command) bool {
	for _, name := range []string{"source", "target", "output"} {
		if !flagChanged(cmd, name) {
			return false
		}
	}
	return c.cfg.GetSourcePath() != "" && c.cfg.GetTargetPath() != "" && c.cfg.GetOutputPath() != ""
}

func (c *cli) loader() *frame.Loader {
	s := c.cfg.Snapshot()
	return frame.NewLoader(frame.Options{ModelsDir: s.ModelsDir, PluginDir: s.PluginDir}, c.logger)
}

func (c *cli) openHistory() *history.Store {
	store, err := history.Open(c.cfg.Snapshot().HistoryPath)
	if err != nil {
		c.logger.Warn("run history disabled", zap.Error(err))
		return nil
	}
	return store
}

func (c *cli) runUI(ctx context.Context) error {
	s := c.cfg.Snapshot()

	client := pipeline.NewClient(s.PipelineAddr, c.logger)
	client.Start()
	defer client.Stop()

	env := &core.Env{
		Config:        c.cfg,
		Registry:      core.DefaultRegistry(),
		Log:           c.logger,
		Processors:    c.loader(),
		Runner:        client,
		Detector:      client,
		Video:         capture.NewFFmpeg(s.FFmpegPath, s.FFprobePath, c.logger),
		FaceReference: core.NewFaceReference(),
		Ctx:           ctx,
	}
	if store := c.openHistory(); store != nil {
		env.History = store
		defer store.Close()
	}

	return ui.CreateApp(env, c.configPath).Run()
}
