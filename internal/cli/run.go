package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/reportql/internal/engine"
	"github.com/roach88/reportql/internal/output"
	"github.com/roach88/reportql/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ReqID string
	TQX   string
	Init  string

	// IDs overrides the request id generator (for testing). If nil and no
	// request id is given, engine.UUIDv7Generator is used.
	IDs engine.RequestIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Run a query against a SQLite database",
		Long: `Compile a query against the schema, execute it on a SQLite database and
print the report.

--format text prints an aligned table, csv writes CSV, parquet writes a
parquet file and json writes a data-table response. --tqx takes data-source request parameters
("reqId:0;out:csv;responseHandler:cb") and overrides --format: json
responses are then wrapped in the response handler call.

The database is opened read-only unless --init runs a SQL script first.

Example:
  reportql run --schema people.cue --db people.db "select name order by name"
  reportql run -s people.cue --db people.db --tqx "reqId:7;out:json" "select *"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ReqID, "req-id", "", "request id echoed in json responses (default: generated UUIDv7)")
	cmd.Flags().StringVar(&opts.TQX, "tqx", "", "data-source request parameters")
	cmd.Flags().StringVar(&opts.Init, "init", "", "SQL script executed before the query (opens the database read-write)")

	return cmd
}

// responder writes results and errors in one of the run output modes.
type responder struct {
	formatter *OutputFormatter
	params    output.Params
	mode      string // one of ValidFormats
}

func newResponder(opts *RunOptions, formatter *OutputFormatter) *responder {
	r := &responder{formatter: formatter, mode: opts.Format}
	if opts.TQX != "" {
		r.params = output.ParseTQX(opts.TQX)
		r.mode = r.params.Out
	} else {
		r.params = output.Params{Out: output.OutJSON}
		if opts.Format == FormatCSV {
			r.params.Out = output.OutCSV
		}
	}
	if r.params.ReqID == "" {
		r.params.ReqID = opts.ReqID
	}
	return r
}

func (r *responder) result(res *engine.Result) error {
	w := r.formatter.Writer
	switch r.mode {
	case FormatCSV:
		return output.WriteCSV(w, res.Table)
	case FormatParquet:
		return output.WriteParquet(w, res.Table)
	case FormatJSON:
		return r.write(output.NewResponse(res.RequestID, res.Table).Warn(res.Warnings()...))
	default:
		output.WriteText(w, res.Table)
		return nil
	}
}

// fail reports err and returns the ExitError for it. json mode answers
// with an error response so clients always get a parseable body.
func (r *responder) fail(err error) error {
	switch r.mode {
	case FormatJSON:
	case FormatParquet:
		// stdout carries binary output; keep errors off it.
		code, message, _ := DescribeError(err)
		fmt.Fprintf(r.formatter.GetErrWriter(), "Error [%s]: %s\n", code, message)
		return WrapExitError(ExitCommandError, code, err)
	default:
		return r.formatter.Fail(err)
	}
	code, message, _ := DescribeError(err)
	if werr := r.write(output.NewErrorResponse(r.params.ReqID, message)); werr != nil {
		return werr
	}
	return WrapExitError(ExitCommandError, code, err)
}

func (r *responder) write(resp *output.Response) error {
	var (
		body []byte
		err  error
	)
	if r.params.TQX {
		body, err = resp.Script(r.params.ResponseHandler)
	} else {
		body, err = resp.JSON()
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.formatter.Writer, "%s\n", body)
	return err
}

func runQuery(opts *RunOptions, query string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log := formatter.Logger()
	resp := newResponder(opts, formatter)

	if problems := resp.params.Validate(); len(problems) > 0 {
		// An invalid out leaves no format to answer in; fall back to json.
		if resp.mode != FormatCSV && resp.mode != FormatParquet {
			resp.mode = FormatJSON
		}
		return resp.fail(&CommandError{Code: ErrCodeBadRequest, Message: strings.Join(problems, "; ")})
	}

	reg, err := LoadSchema(opts.SchemaPath())
	if err != nil {
		return resp.fail(err)
	}

	dbPath := opts.DatabasePath()
	if dbPath == "" {
		return resp.fail(&CommandError{Code: ErrCodeNoDatabase, Message: "no database given (use --db or " + EnvDatabase + ")"})
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, dbPath, opts.Init)
	if err != nil {
		return resp.fail(err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	ids := opts.IDs
	if resp.params.ReqID != "" {
		ids = engine.NewFixedGenerator(resp.params.ReqID)
	}
	engOpts := []engine.Option{engine.WithFetcher(st), engine.WithLogger(log)}
	if ids != nil {
		engOpts = append(engOpts, engine.WithRequestIDs(ids))
	}
	eng := engine.New(reg, engOpts...)

	res, err := eng.Run(ctx, query)
	if err != nil {
		return resp.fail(err)
	}
	log.Info("report ready", "req_id", res.RequestID, "rows", len(res.Table.Rows))
	return resp.result(res)
}

// openStore opens path read-only, or read-write after running the init
// script when one is given.
func openStore(ctx context.Context, path, initScript string) (*store.Store, error) {
	if initScript == "" {
		return store.Open(path, store.ReadOnly())
	}
	script, err := os.ReadFile(initScript)
	if err != nil {
		return nil, fmt.Errorf("read init script: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := st.Exec(ctx, string(script)); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
