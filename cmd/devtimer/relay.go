package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/devtimer/internal/config"
	"github.com/hammamikhairi/devtimer/internal/relay"
)

func relayCmd(g *globalFlags) *cobra.Command {
	var (
		port       int
		corsOrigin string
	)

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Serve the coach and speech relay",
		Long: `Serve the HTTP relay that forwards coach prompts and speech requests to
the model provider. The API key stays on the server: set ` + config.EnvOpenAIKey + `
(and optionally ` + config.EnvGeminiKey + ` for gemini-* models).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			rc := cfg.Relay
			if cmd.Flags().Changed("port") {
				rc.Port = port
			}
			if cmd.Flags().Changed("cors-origin") {
				rc.CORSOrigin = corsOrigin
			}

			// The relay logs to the console unless a file is requested.
			log, closeLog := openLog(g, "stderr", cfg.Client.LogLevel)
			defer closeLog()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			router := &relay.Router{}
			if rc.OpenAIKey != "" {
				router.OpenAI = relay.NewOpenAIUpstream(rc.OpenAIKey, rc.OpenAIBaseURL)
			} else {
				log.Warn("%s is not set; coach and speech requests will fail", config.EnvOpenAIKey)
			}
			if rc.GeminiKey != "" {
				gemini, err := relay.NewGeminiUpstream(ctx, rc.GeminiKey)
				if err != nil {
					log.Warn("gemini disabled: %v", err)
				} else {
					router.Gemini = gemini
				}
			}

			srv := relay.NewServer(router, log.Named("relay"),
				relay.WithRateLimiter(relay.NewRateLimiter(rc.RateLimit, rc.RateWindow)),
				relay.WithCORSOrigins(relay.ParseOrigins(rc.CORSOrigin)),
			)
			return srv.ListenAndServe(ctx, rc.Addr())
		},
	}

	cmd.Flags().IntVar(&port, "port", relay.DefaultPort, "listen port; overrides the config and "+config.EnvPort)
	cmd.Flags().StringVar(&corsOrigin, "cors-origin", "", "comma-separated allowed origins (empty allows any)")
	return cmd
}
