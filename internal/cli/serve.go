package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/reportql/internal/server"
)

// DefaultServeAddr is the listen address of serve without --addr.
const DefaultServeAddr = ":8080"

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr         string
	AllowOrigins []string
	Init         string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries over HTTP as a data source",
		Long: `Serve the schema and database as an HTTP data source until interrupted.

GET /query?tq=<query>&tqx=<params> answers with a data-table response,
wrapped in the response handler call when tqx is given, or with CSV for
out:csv. GET /columns lists the schema columns and GET /healthz reports
liveness.

Example:
  reportql serve --schema people.cue --db people.db --addr :8080
  curl 'localhost:8080/query?tq=select+firstname&tqx=reqId:0'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", DefaultServeAddr, "listen address")
	cmd.Flags().StringSliceVar(&opts.AllowOrigins, "allow-origin", nil, "origins allowed to call from a browser (default: all)")
	cmd.Flags().StringVar(&opts.Init, "init", "", "SQL script executed before serving (opens the database read-write)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log := formatter.LoggerAt(slog.LevelInfo)

	reg, err := LoadSchema(opts.SchemaPath())
	if err != nil {
		return formatter.Fail(err)
	}

	dbPath := opts.DatabasePath()
	if dbPath == "" {
		return formatter.Fail(&CommandError{Code: ErrCodeNoDatabase, Message: "no database given (use --db or " + EnvDatabase + ")"})
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, dbPath, opts.Init)
	if err != nil {
		return formatter.Fail(err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(reg, st, server.Options{
		AllowOrigins: opts.AllowOrigins,
		Logger:       log,
	})
	if err != nil {
		return formatter.Fail(&CommandError{Code: ErrCodeBadRequest, Message: err.Error()})
	}

	if err := srv.ListenAndServe(ctx, opts.Addr); err != nil {
		return formatter.Fail(err)
	}
	return nil
}
