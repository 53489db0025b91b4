// Package errlog appends failures to a plain text file the user can open.
// It is the ops-facing sink next to the workbook, separate from the typed
// errors the repository returns and from process logs: the format is fixed
// so existing error_log.txt files keep reading the same.
package errlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Logger struct {
	Path string
}

func New(path string) *Logger {
	return &Logger{Path: path}
}

// Log appends one entry. Best-effort: a sink failure must never take down
// the operation being reported, so write errors are swallowed.
func (l *Logger) Log(context string, err error) {
	if err == nil {
		return
	}
	if mkErr := os.MkdirAll(filepath.Dir(l.Path), 0o755); mkErr != nil {
		return
	}
	f, openErr := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if openErr != nil {
		return
	}
	defer f.Close()

	ts := time.Now().Format("2006-01-02T15:04:05")
	fmt.Fprintf(f, "[%s] %s\n%v\n\n", ts, context, err)
}
