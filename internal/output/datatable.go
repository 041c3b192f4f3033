package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/reportql/internal/report"
	"github.com/roach88/reportql/internal/schema"
)

// Version is the data-source protocol version this package speaks.
const Version = "0.6"

// DefaultResponseHandler wraps script responses when the request names none.
const DefaultResponseHandler = "google.visualization.Query.setResponse"

// ReasonInvalidRequest is the reason reported for every error.
const ReasonInvalidRequest = "invalid_request"

// ReasonOther is the reason reported for warnings.
const ReasonOther = "other"

// Response is a data-source response envelope.
type Response struct {
	Version  string        `json:"version"`
	ReqID    string        `json:"reqId,omitempty"`
	Status   string        `json:"status"`
	Table    *DataTable    `json:"table,omitempty"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
	Warnings []ErrorDetail `json:"warnings,omitempty"`
}

// Warn adds one warning per message. An ok response becomes a warning
// response; the table is kept.
func (r *Response) Warn(messages ...string) *Response {
	for _, m := range messages {
		r.Warnings = append(r.Warnings, ErrorDetail{Reason: ReasonOther, Message: m})
	}
	if len(r.Warnings) > 0 && r.Status == "ok" {
		r.Status = "warning"
	}
	return r
}

// ErrorDetail is one entry of an error or warning list.
type ErrorDetail struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// DataTable is the table part of a response.
type DataTable struct {
	Cols []Col      `json:"cols"`
	Rows []TableRow `json:"rows"`
}

// Col describes one column of a DataTable.
type Col struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// TableRow is one row of a DataTable.
type TableRow struct {
	C []Cell `json:"c"`
}

// Cell holds a converted value and, for formatted cells, the display text.
type Cell struct {
	V any `json:"v"`
	F any `json:"f,omitempty"`
}

// NewResponse builds an ok response for t.
func NewResponse(reqID string, t *report.Table) *Response {
	return &Response{
		Version: Version,
		ReqID:   reqID,
		Status:  "ok",
		Table:   NewDataTable(t),
	}
}

// NewErrorResponse builds an error response with one entry per message.
func NewErrorResponse(reqID string, messages ...string) *Response {
	r := &Response{Version: Version, ReqID: reqID, Status: "error"}
	for _, m := range messages {
		r.Errors = append(r.Errors, ErrorDetail{Reason: ReasonInvalidRequest, Message: m})
	}
	return r
}

// NewDataTable converts a compiled report table. Every cell value is
// converted to its column's type; formatted cells keep their text in F.
func NewDataTable(t *report.Table) *DataTable {
	dt := &DataTable{
		Cols: make([]Col, len(t.Columns)),
		Rows: make([]TableRow, len(t.Rows)),
	}
	for i, c := range t.Columns {
		dt.Cols[i] = Col{ID: c.ID, Label: c.Label, Type: string(c.Type)}
	}
	for i, row := range t.Rows {
		cells := make([]Cell, len(row))
		for j, v := range row {
			typ := schema.TypeString
			if j < len(t.Columns) {
				typ = t.Columns[j].Type
			}
			if f, ok := v.(schema.Formatted); ok {
				cells[j] = Cell{V: ConvertCell(f.Value, typ), F: f.FormattedValue}
				continue
			}
			cells[j] = Cell{V: ConvertCell(v, typ)}
		}
		dt.Rows[i] = TableRow{C: cells}
	}
	return dt
}

// JSON encodes r without HTML escaping.
func (r *Response) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Script renders r as a call of handler, the form script-tag clients
// expect: handler({...}); A handler that is not a dotted identifier path
// is replaced by DefaultResponseHandler.
func (r *Response) Script(handler string) ([]byte, error) {
	if !ValidResponseHandler(handler) {
		handler = DefaultResponseHandler
	}
	body, err := r.JSON()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(handler)+len(body)+3)
	out = append(out, handler...)
	out = append(out, '(')
	out = append(out, body...)
	out = append(out, ");"...)
	return out, nil
}
