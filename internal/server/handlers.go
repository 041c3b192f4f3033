package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roach88/reportql/internal/engine"
	"github.com/roach88/reportql/internal/output"
	"github.com/roach88/reportql/internal/queryspec"
	"github.com/roach88/reportql/internal/resolve"
	"github.com/roach88/reportql/internal/tq"
)

const (
	contentTypeJSON   = "application/json; charset=utf-8"
	contentTypeScript = "text/javascript; charset=utf-8"
	contentTypeCSV    = "text/csv; charset=utf-8"
	contentTypeText   = "text/plain; charset=utf-8"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "columns": s.reg.Len()})
}

// ColumnInfo is one entry of the /columns listing.
type ColumnInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
	SQL   string `json:"sql,omitempty"`
}

func (s *Server) columns(c *gin.Context) {
	cols := s.reg.Columns()
	out := make([]ColumnInfo, 0, len(cols))
	for _, col := range cols {
		info := ColumnInfo{ID: col.ID, Label: col.DisplayLabel(), Type: string(col.Type)}
		if col.IsSQL() {
			info.SQL = col.SQL.Name(col.ID)
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, out)
}

// query answers GET /query?tq=...&tqx=... An empty tq selects every column.
func (s *Server) query(c *gin.Context) {
	params := output.ParseTQX(c.Query("tqx"))

	if problems := params.Validate(); len(problems) > 0 {
		s.fail(c, params, http.StatusBadRequest, strings.Join(problems, "; "))
		return
	}

	query := c.Query("tq")
	if strings.TrimSpace(query) == "" {
		query = "select *"
	}

	res, err := s.engineFor(params.ReqID).Run(c.Request.Context(), query)
	if err != nil {
		s.logger.Warn("query failed", "query", query, "error", err)
		s.fail(c, params, statusFor(err), err.Error())
		return
	}

	if params.Out == output.OutCSV {
		var buf bytes.Buffer
		if err := output.WriteCSV(&buf, res.Table); err != nil {
			s.fail(c, params, http.StatusInternalServerError, err.Error())
			return
		}
		c.Data(http.StatusOK, contentTypeCSV, buf.Bytes())
		return
	}
	s.respond(c, params, http.StatusOK, output.NewResponse(res.RequestID, res.Table).Warn(res.Warnings()...))
}

// fail answers with an error response. CSV clients get the message as
// plain text; script clients always get status 200 so the handler runs.
func (s *Server) fail(c *gin.Context, params output.Params, status int, message string) {
	if params.Out == output.OutCSV {
		c.Data(status, contentTypeText, []byte(message+"\n"))
		return
	}
	s.respond(c, params, status, output.NewErrorResponse(params.ReqID, message))
}

func (s *Server) respond(c *gin.Context, params output.Params, status int, resp *output.Response) {
	if params.TQX {
		body, err := resp.Script(params.ResponseHandler)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Data(http.StatusOK, contentTypeScript, body)
		return
	}
	body, err := resp.JSON()
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(status, contentTypeJSON, body)
}

// statusFor maps query errors to a status: errors in the query itself are
// the client's, everything else is the server's.
func statusFor(err error) int {
	var (
		syntaxErr *tq.SyntaxError
		unsupErr  *queryspec.UnsupportedQueryError
		cycleErr  *resolve.CircularDependencyError
		execErr   *engine.ExecError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &unsupErr), errors.As(err, &cycleErr):
		return http.StatusBadRequest
	case errors.As(err, &execErr) && execErr.Code == engine.ErrCodeNoStatement:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
