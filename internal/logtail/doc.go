// Package logtail reads the end of log files and classifies log lines.
//
// # Reading Log Files
//
// Read keeps the last maxLines of a file in a ring buffer, so memory is
// bounded by maxLines rather than the file size:
//
//	lines, err := logtail.Read(cfg.LogFile, 400)
//	if err != nil {
//		log.Printf("failed to read log: %v", err)
//	}
//
// A missing file returns nil, nil. Other errors are wrapped.
//
// # Classification
//
// Classify maps a line to a Level for highlighting. It understands the
// generator's "LEVEL    | module - message" lines and falls back to keyword
// matching for the client log.
package logtail
