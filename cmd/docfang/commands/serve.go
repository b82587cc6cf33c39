package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docfang/pkg/httpapi"
	"github.com/Sumatoshi-tech/docfang/pkg/observability"
)

// ServeCommand holds the flags of the serve command.
type ServeCommand struct {
	global *globalOptions
	host   string
	port   int
}

func newServeCommand(global *globalOptions) *cobra.Command {
	sc := &ServeCommand{global: global}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start an HTTP server exposing:
  POST /v1/extract   extract the body of an HTML document
  POST /v1/javadoc   convert package.html contents to a Javadoc comment
  GET  /healthz      liveness probe
  GET  /metrics      Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.host, "host", "", "Address to bind (default from config)")
	cmd.Flags().IntVarP(&sc.port, "port", "p", 0, "Port to listen on (default from config)")

	return cmd
}

func (sc *ServeCommand) run(cmd *cobra.Command, _ []string) error {
	sess, err := sc.global.open(observability.ModeServe, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.close()

	serverCfg := sess.cfg.Server

	if cmd.Flags().Changed("host") {
		serverCfg.Host = sc.host
	}

	if cmd.Flags().Changed("port") {
		serverCfg.Port = sc.port
	}

	maxBody, err := serverCfg.MaxBodySizeBytes()
	if err != nil {
		return err
	}

	red, err := observability.NewREDMetrics(sess.providers.Meter)
	if err != nil {
		return err
	}

	opts := httpapi.Options{
		Addr:            serverCfg.Addr(),
		MaxBodySize:     maxBody,
		ReadTimeout:     serverCfg.ReadTimeout,
		WriteTimeout:    serverCfg.WriteTimeout,
		IdleTimeout:     serverCfg.IdleTimeout,
		ShutdownTimeout: serverCfg.ShutdownTimeout,
		WrapWidth:       sess.cfg.Javadoc.WrapWidth,
	}

	handler := httpapi.NewHandler(opts, httpapi.Deps{
		Logger:  sess.providers.Logger,
		Tracer:  sess.providers.Tracer,
		RED:     red,
		Metrics: sess.providers.MetricsHandler,
	})

	return httpapi.Serve(cmd.Context(), opts, handler, sess.providers.Logger)
}
