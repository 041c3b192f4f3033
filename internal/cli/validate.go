package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reportql/internal/resolve"
	"github.com/roach88/reportql/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                     `json:"valid"`
	Columns int                      `json:"columns"`
	Errors  []schema.ValidationError `json:"errors,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	RequireLabels bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [schema]",
		Short: "Validate a column schema",
		Long: `Load a CUE column schema and check it without running a query.

Declaration errors (unknown options, bad types, unknown formats, joins on
undeclared tables) fail with exit code 2. Findings on a schema that loads
(requires on undeclared columns, unused tables, requires cycles and, with
--require-labels, unlabeled columns) fail with exit code 1.

The schema path defaults to --schema or $` + EnvSchema + `.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.SchemaPath()
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(opts, path, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.RequireLabels, "require-labels", false, "report columns without a label")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log := formatter.Logger()

	reg, err := LoadSchema(path)
	if err != nil {
		return formatter.Fail(err)
	}
	log.Debug("schema loaded", "path", path, "columns", reg.Len(), "tables", len(reg.Tables()))

	errs := ValidateRegistry(reg, schema.ValidateOptions{RequireLabels: opts.RequireLabels})
	if len(errs) > 0 {
		return outputValidationErrors(formatter, reg, errs)
	}

	if formatter.Format == FormatJSON {
		return formatter.Success(ValidationResult{Valid: true, Columns: reg.Len()})
	}
	fmt.Fprintf(formatter.Writer, "✓ Schema valid (%d columns)\n", reg.Len())
	return nil
}

// ValidateRegistry runs the schema checks and the static cycle analysis.
func ValidateRegistry(reg *schema.Registry, opts schema.ValidateOptions) []schema.ValidationError {
	errs := schema.Validate(reg, opts)
	for _, w := range resolve.AnalyzeCycles(reg) {
		errs = append(errs, schema.ValidationError{
			Field:   "column." + w.Path[0],
			Message: w.Message,
			Code:    ErrCodeCycle,
		})
	}
	return errs
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, reg *schema.Registry, errs []schema.ValidationError) error {
	if formatter.Format == FormatJSON {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:   false,
				Columns: reg.Len(),
				Errors:  errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d finding(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n  %s: %s\n\n", err.Field, err.Code, err.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d finding(s)", len(errs)))
}
