package output

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Output formats a data-source request may ask for.
const (
	OutJSON = "json"
	OutCSV  = "csv"
)

// Outs lists the supported output formats.
var Outs = []string{OutJSON, OutCSV}

// responseHandlerPattern matches dotted JavaScript identifier paths such as
// "google.visualization.Query.setResponse".
var responseHandlerPattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*(\.[A-Za-z_$][\w$]*)*$`)

// ValidResponseHandler reports whether handler can be called as is from a
// script response.
func ValidResponseHandler(handler string) bool {
	return responseHandlerPattern.MatchString(handler)
}

// Params are the data-source request parameters, usually carried in the
// tqx request value as "reqId:0;out:csv;responseHandler:cb".
type Params struct {
	TQX             bool // parameters came from a tqx value
	ReqID           string
	Out             string
	ResponseHandler string
	Version         string
}

// ParseTQX parses a tqx value. Pairs are separated by ';', key and value by
// the first ':'. Unknown keys are ignored. Out defaults to json.
func ParseTQX(tqx string) Params {
	p := Params{}
	if strings.TrimSpace(tqx) != "" {
		p.TQX = true
		for _, kv := range strings.Split(tqx, ";") {
			key, value, _ := strings.Cut(kv, ":")
			switch strings.TrimSpace(key) {
			case "reqId":
				p.ReqID = value
			case "out":
				p.Out = value
			case "responseHandler":
				p.ResponseHandler = value
			case "version":
				p.Version = value
			}
		}
	}
	if p.Out == "" {
		p.Out = OutJSON
	}
	return p
}

// Validate returns the problems with p, in a stable order. A request with
// tqx must carry a reqId and, if it names a version, this package's one.
// A response handler must be a dotted identifier path.
func (p Params) Validate() []string {
	var problems []string
	if p.TQX {
		if p.ReqID == "" {
			problems = append(problems, "Missing required parameter reqId")
		}
		if p.Version != "" && p.Version != Version {
			problems = append(problems, fmt.Sprintf("Unsupported version %s", p.Version))
		}
		if p.ResponseHandler != "" && !ValidResponseHandler(p.ResponseHandler) {
			problems = append(problems, "Invalid responseHandler: must be a dotted identifier")
		}
	}
	if !slices.Contains(Outs, p.Out) {
		problems = append(problems, fmt.Sprintf("Invalid output format: %s. Valid ones are %s", p.Out, strings.Join(Outs, ",")))
	}
	return problems
}
