// Package ui prints user-facing messages for the bindgen CLI.
//
// Messages carry a level and are written either as a colored "LEVEL: text"
// line or, in JSON mode, as one Message object per line. Errors go to the
// error stream; everything else goes to standard output. Debug messages are
// dropped unless verbose mode is on.
//
//	ui.Info("Planning %d passes", len(passes))
//	ui.Step(3, 12, "%s", destination)
//	ui.Error("Generation failed: %v", err)
package ui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// OutputLevel is the severity of a message.
type OutputLevel string

const (
	LevelDebug   OutputLevel = "debug"
	LevelInfo    OutputLevel = "info"
	LevelWarning OutputLevel = "warning"
	LevelError   OutputLevel = "error"
	LevelSuccess OutputLevel = "success"
)

// Message is the JSON form of one message.
type Message struct {
	Level     OutputLevel `json:"level"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
}

type style struct {
	label string
	paint *color.Color
}

var styles = map[OutputLevel]style{
	LevelDebug:   {"DEBUG:", color.New(color.FgMagenta)},
	LevelInfo:    {"INFO:", color.New(color.FgCyan)},
	LevelWarning: {"WARN:", color.New(color.FgYellow)},
	LevelError:   {"ERROR:", color.New(color.FgRed, color.Bold)},
	LevelSuccess: {"OK:", color.New(color.FgGreen)},
}

// console holds the output settings shared by the package functions.
type console struct {
	mu             sync.Mutex
	verbose        bool
	nonInteractive bool
	json           bool
	out, errOut    io.Writer
	in             io.Reader
}

var std = &console{out: os.Stdout, errOut: os.Stderr, in: os.Stdin}

// SetVerbose shows or hides debug messages.
func SetVerbose(enabled bool) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.verbose = enabled
}

// SetNonInteractive makes Confirm answer yes without prompting.
func SetNonInteractive(enabled bool) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.nonInteractive = enabled
}

// SetJSONOutput switches to one JSON object per message.
func SetJSONOutput(enabled bool) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.json = enabled
}

// SetOutput redirects messages. Errors go to errOut, everything else to out.
// A nil writer leaves the current one in place.
func SetOutput(out, errOut io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	if out != nil {
		std.out = out
	}
	if errOut != nil {
		std.errOut = errOut
	}
}

// SetInput replaces the reader used by Confirm.
func SetInput(in io.Reader) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.in = in
}

func (c *console) emit(level OutputLevel, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if level == LevelDebug && !c.verbose {
		return
	}
	w := c.out
	if level == LevelError {
		w = c.errOut
	}
	if c.json {
		if err := json.NewEncoder(w).Encode(Message{Level: level, Text: text, Timestamp: time.Now()}); err != nil {
			fmt.Fprintf(c.errOut, "Failed to encode JSON output: %v\n", err)
		}
		return
	}
	s := styles[level]
	fmt.Fprintf(w, "%s %s\n", s.paint.Sprint(s.label), text)
}

// Debug prints a message shown only in verbose mode.
func Debug(format string, args ...any) {
	std.emit(LevelDebug, fmt.Sprintf(format, args...))
}

func Info(format string, args ...any) {
	std.emit(LevelInfo, fmt.Sprintf(format, args...))
}

func Warning(format string, args ...any) {
	std.emit(LevelWarning, fmt.Sprintf(format, args...))
}

// Error prints to the error stream.
func Error(format string, args ...any) {
	std.emit(LevelError, fmt.Sprintf(format, args...))
}

func Success(format string, args ...any) {
	std.emit(LevelSuccess, fmt.Sprintf(format, args...))
}

// Step prints an indented "[step/total] text" progress line. In JSON mode it
// is an info message.
func Step(step, total int, format string, args ...any) {
	text := fmt.Sprintf("[%d/%d] %s", step, total, fmt.Sprintf(format, args...))

	std.mu.Lock()
	useJSON, out := std.json, std.out
	std.mu.Unlock()

	if useJSON {
		std.emit(LevelInfo, text)
		return
	}
	std.mu.Lock()
	defer std.mu.Unlock()
	fmt.Fprintf(out, "  %s\n", text)
}

// Confirm asks a yes/no question on the input stream. Only "y", "Y" and
// "yes" confirm. In non-interactive mode it returns true without asking.
func Confirm(format string, args ...any) bool {
	std.mu.Lock()
	skip, out, in := std.nonInteractive, std.out, std.in
	std.mu.Unlock()

	if skip {
		return true
	}
	fmt.Fprintf(out, "%s [y/N]: ", fmt.Sprintf(format, args...))

	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.TrimSpace(answer) {
	case "y", "Y", "yes":
		return true
	}
	return false
}
