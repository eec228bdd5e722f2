// Package logtail reads the tail of the dashboard's own log file for the log
// pane.
//
// Read returns the last N lines using a ring buffer, so memory stays at
// O(N) however large the file grows. ReadRecords does the same and decodes
// each line as a JSON slog record:
//
//	{"time":"2024-05-01T10:00:00Z","level":"WARN","msg":"credential refresh failed","reason":"..."}
//
// becomes a Record with Time, Level, Message and the remaining attributes in
// key order. The service and source attributes are dropped. Lines that are
// not JSON are kept verbatim in Record.Raw.
//
// A missing log file is not an error; it simply has no lines yet.
package logtail
