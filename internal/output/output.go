// Package output holds a check's text output and long text lines.
package output

import "strings"

// Uninitialized is the text of a buffer nothing has written to.
const Uninitialized = "uninitialized plugin"

// Buffer is the short summary text plus ordered long text lines.
type Buffer struct {
	text     string
	longText []string
}

// New creates a buffer with the uninitialized marker text.
func New() *Buffer {
	return &Buffer{text: Uninitialized}
}

// Text returns the summary text.
func (b *Buffer) Text() string {
	return b.text
}

// SetText replaces the summary text.
func (b *Buffer) SetText(text string) {
	b.text = text
}

// Push appends long text lines. Multi-line strings are split so every entry is one line.
func (b *Buffer) Push(lines ...string) {
	for _, l := range lines {
		b.longText = append(b.longText, strings.Split(strings.TrimRight(l, "\n"), "\n")...)
	}
}

// LongText returns a copy of the long text lines.
func (b *Buffer) LongText() []string {
	out := make([]string, len(b.longText))
	copy(out, b.longText)
	return out
}

// LongString returns the long text lines joined by newlines.
func (b *Buffer) LongString() string {
	return strings.Join(b.longText, "\n")
}

// Reset restores the buffer to its freshly constructed state.
func (b *Buffer) Reset() {
	b.text = Uninitialized
	b.longText = nil
}

// String returns the summary text.
func (b *Buffer) String() string {
	return b.text
}
