package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/roach88/reportql/internal/engine"
	"github.com/roach88/reportql/internal/report"
	"github.com/roach88/reportql/internal/schema"
	"github.com/roach88/reportql/internal/store"
)

// Harness runs the flow of one scenario against one engine.
type Harness struct {
	engine   *engine.Engine
	executes bool // false when the scenario has no data source
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database (or its literal
// rows) with fixed request ids, so results are reproducible.
//
// Execution flow:
// 1. Load the CUE schema
// 2. Create the data source from the setup script or rows, if any
// 3. Plan each flow query and execute it when there is a data source
// 4. Check every step against its expect clause
//
// The returned error covers harness failures (bad schema, bad setup
// script); query failures are step results.
func Run(scenario *Scenario) (*Result, error) {
	reg, err := schema.Load(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	reqID := scenario.RequestID
	if reqID == "" {
		reqID = DefaultRequestID
	}

	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	opts := []engine.Option{
		engine.WithLogger(h.logger),
		engine.WithRequestIDs(engine.NewFixedGenerator(slices.Repeat([]string{reqID}, len(scenario.Flow))...)),
	}

	ctx := context.Background()
	switch {
	case scenario.Setup != "":
		st, err := openSetupStore(ctx, scenario.Setup)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		opts = append(opts, engine.WithFetcher(st))
		h.executes = true
	case len(scenario.Rows) > 0:
		raw := make([]any, len(scenario.Rows))
		for i, row := range scenario.Rows {
			raw[i] = row
		}
		rows, err := report.Accessors(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid rows: %w", err)
		}
		opts = append(opts, engine.WithFetcher(engine.Rows(rows)))
		h.executes = true
	}
	h.engine = engine.New(reg, opts...)

	result := NewResult()
	for i, step := range scenario.Flow {
		sr := h.runStep(ctx, step)
		result.Steps = append(result.Steps, sr)
		for _, msg := range CheckExpect(sr, step.Expect) {
			result.AddError(fmt.Sprintf("flow[%d] %q: %s", i, step.Query, msg))
		}
	}
	return result, nil
}

func (h *Harness) runStep(ctx context.Context, step FlowStep) StepResult {
	sr := StepResult{Query: step.Query}

	p, err := h.engine.Plan(step.Query)
	if err != nil {
		sr.Err = err
		return sr
	}
	sr.Plan = p
	if !h.executes {
		return sr
	}

	res, err := h.engine.Execute(ctx, p)
	if err != nil {
		sr.Err = err
		return sr
	}
	sr.Result = res
	h.logger.Info("step executed", "query", step.Query, "rows", len(res.Table.Rows))
	return sr
}

// openSetupStore loads the setup script into a fresh in-memory database.
func openSetupStore(ctx context.Context, path string) (*store.Store, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read setup script: %w", err)
	}
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	if err := st.Exec(ctx, string(script)); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to run setup script: %w", err)
	}
	return st, nil
}
