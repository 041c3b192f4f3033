// Package server answers data-source requests over HTTP.
//
// GET /query takes the query in tq and the request parameters in tqx
// ("reqId:0;out:csv;responseHandler:cb"), runs it and replies with a
// data-table response: script-wrapped when tqx was given, bare JSON
// otherwise, or CSV for out:csv. Errors are error responses in the same
// shape, so script clients always receive a handler call.
//
// GET /columns lists the schema columns and GET /healthz reports liveness.
package server
