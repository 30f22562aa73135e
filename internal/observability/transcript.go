package observability

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Transcript is an ordered, append-only log of human-readable lines that a
// front-end can display. It keeps at most max lines, dropping the oldest.
type Transcript struct {
	mu sync.Mutex
	// lines is a ring once it holds max lines; head is its oldest entry.
	lines   []string
	head    int
	dropped int
	max     int
}

// NewTranscript creates a transcript. max <= 0 keeps every line.
func NewTranscript(max int) *Transcript {
	return &Transcript{max: max}
}

// Core returns a zap core that appends every entry at or above level.
func (t *Transcript) Core(level zapcore.LevelEnabler) zapcore.Core {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encoderConfig.NameKey = ""
	encoderConfig.CallerKey = ""
	encoderConfig.StacktraceKey = ""
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(t), level)
}

// Write appends one encoded entry. zap calls Write once per entry.
func (t *Transcript) Write(p []byte) (int, error) {
	t.Append(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Append adds a line.
func (t *Transcript) Append(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.max <= 0 || len(t.lines) < t.max {
		t.lines = append(t.lines, line)
		return
	}
	t.lines[t.head] = line
	t.head = (t.head + 1) % t.max
	t.dropped++
}

// Len returns the total number of lines ever appended.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped + len(t.lines)
}

// Since returns lines appended at or after offset (as counted by Len) and
// the offset to pass next time. Lines already dropped are skipped.
func (t *Transcript) Since(offset int) ([]string, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start := offset - t.dropped
	if start < 0 {
		start = 0
	}
	if start > len(t.lines) {
		start = len(t.lines)
	}
	return t.slice(start), t.dropped + len(t.lines)
}

// Tail returns the last n lines.
func (t *Transcript) Tail(n int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || n > len(t.lines) {
		n = len(t.lines)
	}
	return t.slice(len(t.lines) - n)
}

// slice copies the retained lines from position start, oldest first.
func (t *Transcript) slice(start int) []string {
	out := make([]string, 0, len(t.lines)-start)
	for i := start; i < len(t.lines); i++ {
		out = append(out, t.lines[(t.head+i)%len(t.lines)])
	}
	return out
}
