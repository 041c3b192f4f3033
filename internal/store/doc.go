// Package store fetches report rows from SQLite.
//
// It is the data source the engine talks to through engine.Fetcher: it runs
// the parameterized statements built by querysql and hands back rows keyed
// by column id. Values keep the driver's types (int64, float64, string,
// time.Time for DATE/DATETIME columns, nil); text returned as bytes is
// converted to string.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes (writable databases)
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
