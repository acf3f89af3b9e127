package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns the whole file. A missing file yields no
// lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Level is the severity a log line appears to carry.
type Level int

const (
	LevelNone Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// Classify guesses the severity of line. Server lines look like
// "INFO    | bundlegen.core - message"; client log lines are plain
// "2006/01/02 15:04:05 message" entries where failures say so.
func Classify(line string) Level {
	if head, _, ok := strings.Cut(line, "|"); ok {
		switch strings.ToUpper(strings.TrimSpace(head)) {
		case "TRACE", "DEBUG":
			return LevelDebug
		case "INFO", "SUCCESS":
			return LevelInfo
		case "WARN", "WARNING":
			return LevelWarn
		case "ERROR", "CRITICAL":
			return LevelError
		}
	}
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, " failed"), strings.Contains(lower, "error"):
		return LevelError
	case strings.Contains(lower, "disconnected"):
		return LevelWarn
	default:
		return LevelNone
	}
}
