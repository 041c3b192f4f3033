package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"

	// FormatParquet is only meaningful for run; other commands print text.
	FormatParquet = "parquet"
)

// Environment variables consulted when the matching flag is not set.
const (
	EnvSchema   = "REPORTQL_SCHEMA"
	EnvDatabase = "REPORTQL_DB"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "text" | "json" | "csv" | "parquet"
	EnvFile  string
	Schema   string
	Database string
	LogFile  string

	logWriter *lumberjack.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON, FormatCSV, FormatParquet}

// SchemaPath returns the --schema flag, falling back to $REPORTQL_SCHEMA.
func (o *RootOptions) SchemaPath() string {
	if o.Schema != "" {
		return o.Schema
	}
	return os.Getenv(EnvSchema)
}

// DatabasePath returns the --db flag, falling back to $REPORTQL_DB.
func (o *RootOptions) DatabasePath() string {
	if o.Database != "" {
		return o.Database
	}
	return os.Getenv(EnvDatabase)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	f := &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // logs go to stderr to keep json output clean
		Verbose:   o.Verbose,
	}
	if o.LogFile != "" {
		if o.logWriter == nil {
			o.logWriter = &lumberjack.Logger{
				Filename:   o.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			}
		}
		f.LogWriter = o.logWriter
	}
	return f
}

// closeLog closes the --log-file writer, if one was opened.
func (o *RootOptions) closeLog() error {
	if o.logWriter == nil {
		return nil
	}
	err := o.logWriter.Close()
	o.logWriter = nil
	return err
}

// NewRootCommand creates the root command for the reportql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "reportql",
		Short: "reportql - restricted query language for tabular reports",
		Long: `Compile restricted query-language text against a declared column schema
into SQL fragments, run it on SQLite and emit the report as a data table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.EnvFile != "" {
				if err := godotenv.Load(opts.EnvFile); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json|csv|parquet)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load environment variables from a dotenv file")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "write logs to a size-rotated file instead of stderr")
	cmd.PersistentFlags().StringVarP(&opts.Schema, "schema", "s", "", "CUE schema file or directory (default $"+EnvSchema+")")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite database path (default $"+EnvDatabase+")")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	// PersistentPostRunE is skipped when RunE fails, so the log file is
	// closed around each command instead.
	for _, sub := range cmd.Commands() {
		run := sub.RunE
		if run == nil {
			continue
		}
		sub.RunE = func(c *cobra.Command, args []string) error {
			defer opts.closeLog()
			return run(c, args)
		}
	}

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
