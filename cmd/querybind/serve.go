package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/querybind/internal/logging"
	"github.com/vango-dev/querybind/pkg/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port          int
		host          string
		param         string
		delay         time.Duration
		abortOnCancel bool
		initialQuery  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		Long: `Run the query-bound fetch demo.

The page shows an input bound to the query parameter, buttons to push
the input into the URL, fetch and cancel, and the fetch result. The
simulated fetch resolves with its argument after the configured delay;
the value "fail" makes it fail.

Examples:
  querybind serve
  querybind serve --port=8080 --delay=500ms
  querybind serve --query='?search=hello%20world'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if param != "" {
				cfg.Query.Param = param
			}
			if cmd.Flags().Changed("delay") {
				cfg.Fetch.Delay = delay.String()
			}
			if abortOnCancel {
				cfg.Fetch.AbortOnCancel = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			fmt.Fprintf(cmd.OutOrStdout(), "  querybind %s\n  http://%s/\n\n", version, cfg.Address())

			srv := server.New(cfg,
				server.WithLogger(logger),
				server.WithInitialQuery(initialQuery),
			)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&param, "param", "", "Query parameter bound to the input (default from config)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Simulated fetch delay (default from config)")
	cmd.Flags().BoolVar(&abortOnCancel, "abort-on-cancel", false, "Cancel the fetch context on cancel or supersede")
	cmd.Flags().StringVarP(&initialQuery, "query", "q", "", "Initial query string")

	return cmd
}
