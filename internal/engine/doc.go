// Package engine runs report queries end to end.
//
// A query goes through two stages:
//
//  1. Plan: parse and simplify the text, resolve the required columns and
//     render the SQL fragments and statement. Planning is pure and needs no
//     data source.
//  2. Execute: fetch rows through a Fetcher, order and page them in memory
//     when SQL could not, and compile every row into output cells.
//
// The registry is read-only, so one Engine may serve concurrent requests.
// Every execution gets a request id from the RequestIDGenerator; it is
// attached to the logger and echoed in the Result.
package engine
