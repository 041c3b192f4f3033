// Package output serializes compiled report tables.
//
// Formats:
//   - data-table response (JSON envelope with version, reqId, status and
//     cols/rows, or a list of invalid_request errors), optionally wrapped in
//     a response handler call for script clients
//   - CSV with a header of column labels
//   - parquet files with one optional field per column
//   - aligned text tables for terminals
//   - canonical JSON for golden files and stable machine output
package output
