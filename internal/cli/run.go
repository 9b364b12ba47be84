package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chapters/internal/config"
	"github.com/alnah/go-chapters/internal/pipeline"
)

// RunCmd creates the run command: the full pipeline against a local file,
// without the HTTP layer.
// The env parameter provides injectable dependencies for testing.
func RunCmd(env *Env) *cobra.Command {
	var (
		showTranscript bool
		skipTranscode  bool
	)

	cmd := &cobra.Command{
		Use:   "run <video-file>",
		Short: "Generate chapters for a local video file",
		Long: `Extract audio from a local video, transcribe it, and print the
generated YouTube chapter list to stdout.`,
		Example: `  chapters run talk.mp4
  chapters run talk.mp4 --transcript
  chapters run episode.mp3 --skip-transcode`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, env, args[0], showTranscript, skipTranscode)
		},
	}

	cmd.Flags().BoolVar(&showTranscript, "transcript", false, "Also print the timestamped transcript to stderr")
	cmd.Flags().BoolVar(&skipTranscode, "skip-transcode", false, "Send the file to the transcription service without audio extraction")

	return cmd
}

func runRun(cmd *cobra.Command, env *Env, inputPath string, showTranscript, skipTranscode bool) error {
	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}

	cfg, err := config.Load(env.Getenv)
	if err != nil {
		return err
	}

	svc, err := env.PipelineFactory.NewPipeline(cfg, env.Stderr)
	if err != nil {
		return err
	}

	f, err := os.Open(inputPath) // #nosec G304 -- user-specified input file
	if err != nil {
		return fmt.Errorf("cannot open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	result, text, err := svc.Chapters(cmd.Context(), f,
		pipeline.TranscribeOptions{SkipTranscode: skipTranscode})
	if err != nil {
		return err
	}

	if showTranscript {
		fmt.Fprintln(env.Stderr, result.Normalize())
	}
	fmt.Fprintln(env.Stdout, text)
	return nil
}
