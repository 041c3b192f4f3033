// Package tq parses report query text into an expression tree.
//
// The accepted dialect is a small, ordered subset of SQL:
//
//	[select <id>[,<id>...]] [where <predicate>] [group by <id>[,<id>...]]
//	[order by <id> [asc|desc][, ...]] [limit <int>] [offset <int>]
//
// Every clause is optional and keywords are case-insensitive. Identifiers
// are bare words or backtick-quoted (`foo bar`). String literals are
// single-quoted; \' and \\ are the only escapes. Numbers are carried as
// text, coercion is left to the caller.
//
// The parser accepts the full predicate grammar (and, or, parentheses,
// comparisons and "in" lists). Restricting it to what reports support is
// the job of package queryspec.
package tq
