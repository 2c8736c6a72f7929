// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎬 Action is the file-level action a notice reports
type Action int

const (
	ActionCopied    Action = iota // plain byte copy
	ActionConverted               // CMYK JPEG conversion
	ActionFallback                // conversion failed, copying original instead
	ActionFailed                  // copy failed
)

// String returns a string representation of Action
func (a Action) String() string {
	switch a {
	case ActionCopied:
		return "copied"
	case ActionConverted:
		return "converted"
	case ActionFallback:
		return "fallback"
	case ActionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 🎯 FileOperation represents a file-level action for logging
type FileOperation struct {
	Action  Action   // What happened
	Source  string   // Source file name
	Targets []string // Duplicate names written (or attempted)
	Err     error    // Conversion or copy error, if any
}

// 📊 Summary holds the counts printed at the end of a run
type Summary struct {
	Files      int // Regular files processed
	Skipped    int // Directories and other non-regular entries
	Ignored    int // Files matched by an ignore pattern
	Converted  int // Files converted to CMYK JPEG
	Fallbacks  int // Files whose conversion failed
	Duplicates int // Duplicates written
	Failures   int // Duplicates that could not be written
}

// 🎯 Logger prints one console line per file-level action and mirrors each
// one to zerolog.
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	count   int
}

// 🏭 New creates a new logger writing notices to console
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	var msg string
	switch op.Action {
	case ActionConverted:
		symbol = '✓'
		symbolColor = color.FgGreen
		msg = fmt.Sprintf("Converted and copied: %s -> %s", op.Source, strings.Join(op.Targets, ", "))
	case ActionFallback:
		symbol = '⟳'
		symbolColor = color.FgYellow
		msg = fmt.Sprintf("Failed to convert %s: %v. Copying original file instead.", op.Source, op.Err)
	case ActionFailed:
		symbol = '✗'
		symbolColor = color.FgRed
		msg = fmt.Sprintf("Failed to copy %s -> %s: %v", op.Source, strings.Join(op.Targets, ", "), op.Err)
	default:
		symbol = '•'
		symbolColor = color.FgCyan
		msg = fmt.Sprintf("Copied: %s -> %s", op.Source, strings.Join(op.Targets, ", "))
	}

	return fmt.Sprintf("%s %s", color.New(symbolColor).Sprint(string(symbol)), msg)
}

// 📝 LogFileOperation prints a file operation and logs it to zerolog
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	fmt.Fprintln(l.console, l.formatFileOperation(op))

	ev := l.zlog.Debug()
	if op.Err != nil {
		ev = l.zlog.Warn().Err(op.Err)
	}
	ev.Str("action", op.Action.String()).
		Str("source", op.Source).
		Strs("targets", op.Targets).
		Msg("file operation")
}

// 🔢 Count returns the number of notices printed so far
func (l *Logger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// 📊 Summary prints the end-of-run counts
func (l *Logger) Summary(s Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf("%d files, %d duplicates written", s.Files, s.Duplicates)
	if s.Converted > 0 || s.Fallbacks > 0 {
		msg += fmt.Sprintf(", %d converted, %d fell back", s.Converted, s.Fallbacks)
	}
	if s.Skipped > 0 || s.Ignored > 0 {
		msg += fmt.Sprintf(", %d skipped, %d ignored", s.Skipped, s.Ignored)
	}

	if s.Failures > 0 {
		msg += fmt.Sprintf(", %d failed", s.Failures)
		pterm.Warning.WithWriter(l.console).Println(msg)
	} else {
		pterm.Success.WithWriter(l.console).Println(msg)
	}

	l.zlog.Info().
		Int("files", s.Files).
		Int("skipped", s.Skipped).
		Int("ignored", s.Ignored).
		Int("converted", s.Converted).
		Int("fallbacks", s.Fallbacks).
		Int("duplicates", s.Duplicates).
		Int("failures", s.Failures).
		Msg("run complete")
}

// ❌ Error prints an error message
func (l *Logger) Error(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pterm.Error.WithWriter(l.console).Println(err.Error())
	l.zlog.Error().Err(err).Msg("run failed")
}
