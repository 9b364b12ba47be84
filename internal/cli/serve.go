package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-chapters/internal/config"
)

// shutdownTimeout bounds how long in-flight requests may drain after a
// termination signal.
const shutdownTimeout = 10 * time.Second

// ServeCmd creates the serve command.
// The env parameter provides injectable dependencies for testing.
func ServeCmd(env *Env) *cobra.Command {
	var (
		addr          string
		skipTranscode bool
		bodyLimit     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chapter generation HTTP service",
		Long: `Run the HTTP service that turns uploaded videos into YouTube chapters.

Endpoints:
  POST /transcribe  multipart video upload -> timestamped transcript
  POST /generate    transcript -> chapter list
  POST /chapters    multipart video upload -> transcript and chapter list
  GET  /health      dependency and environment checks
  GET  /ping        liveness probe

The service starts without a provider credential but answers every
pipeline request with an error until one is configured.`,
		Example: `  chapters serve
  chapters serve --addr :9090
  CHAPTERS_PROVIDER=openai chapters serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, env, addr, ServeOptions{
				SkipTranscode: skipTranscode,
				BodyLimit:     bodyLimit,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: $CHAPTERS_ADDR or :8080)")
	cmd.Flags().BoolVar(&skipTranscode, "skip-transcode", false, "Send uploads to the transcription service without audio extraction")
	cmd.Flags().StringVar(&bodyLimit, "body-limit", "", "Maximum request body size, e.g. 500M (default: unbounded)")

	return cmd
}

func runServe(cmd *cobra.Command, env *Env, addr string, opts ServeOptions) error {
	cfg, err := config.Load(env.Getenv)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}

	svc, err := env.PipelineFactory.NewPipeline(cfg, env.Stderr)
	if err != nil {
		return err
	}

	if !cfg.HasToken() {
		fmt.Fprintf(env.Stderr, "Warning: %s not set; requests will fail until it is\n",
			credentialEnv(cfg.Provider))
	}

	srv := env.ServerFactory.NewServer(svc, opts)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		fmt.Fprintf(env.Stderr, "Listening on %s\n", cfg.Addr)
		if err := srv.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// credentialEnv names the environment variable holding the credential
// for a provider, for diagnostics.
func credentialEnv(provider string) string {
	if provider == config.ProviderOpenAI {
		return config.EnvOpenAIKey
	}
	return config.EnvReplicateToken
}
