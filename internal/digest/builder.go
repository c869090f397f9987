// Package digest builds bounded delivery messages from extracted items.
package digest

import (
	"time"

	"devona/internal/model"
)

// Messaging surface limits. A field value overflowing maxFieldLen is
// truncated with a visible marker; logical blocks are chunked below
// blockChunkLen before that ever happens; a message reaching maxFields
// or maxMessageLen spills into a continuation message.
const (
	maxFieldLen       = 1024
	blockChunkLen     = 1000
	maxFields         = 25
	maxMessageLen     = 5500
	maxDescriptionLen = 4096

	truncationMarker = "..."
)

// truncateField caps s at maxFieldLen, replacing the overflow with a
// visible marker.
func truncateField(s string) string {
	if len(s) <= maxFieldLen {
		return s
	}
	return s[:maxFieldLen-len(truncationMarker)-1] + truncationMarker
}

// Builder accumulates named fields into one or more bounded messages.
// Output depends only on the inputs and the supplied timestamp.
type Builder struct {
	title  string
	url    string
	footer string
	ts     time.Time

	msgs []model.Message
	cur  model.Message
	size int
}

// New starts a builder whose messages share the given title, link,
// footer, and timestamp. Continuation messages get a "(continued)"
// title suffix.
func New(title, url, footer string, ts time.Time) *Builder {
	b := &Builder{title: title, url: url, footer: footer, ts: ts}
	b.cur = b.blank(title)
	return b
}

func (b *Builder) blank(title string) model.Message {
	return model.Message{
		Title:     title,
		URL:       b.url,
		Footer:    b.footer,
		Timestamp: b.ts,
	}
}

// SetDescription attaches intro text to the first message when it fits
// the description ceiling; oversized intros are dropped entirely.
func (b *Builder) SetDescription(text string) {
	if len(b.msgs) == 0 && len(text) <= maxDescriptionLen {
		b.cur.Description = text
		b.size += len(text)
	}
}

// AddField appends a named field, truncating its value and starting a
// continuation message when the field or size ceiling is reached.
func (b *Builder) AddField(name, value string, inline bool) {
	value = truncateField(value)

	if len(b.cur.Fields) >= maxFields || b.size+len(name)+len(value) > maxMessageLen {
		b.msgs = append(b.msgs, b.cur)
		b.cur = b.blank(b.title + " (continued)")
		b.size = 0
	}

	b.cur.Fields = append(b.cur.Fields, model.Field{Name: name, Value: value, Inline: inline})
	b.size += len(name) + len(value)
}

// AddBlock appends one logical group of lines as one or more fields.
// The group is chunked below the per-field soft limit; chunks after the
// first are labeled with a "(cont.)" suffix instead of being truncated.
func (b *Builder) AddBlock(name string, lines []string) {
	var chunks []string
	var chunk []string
	length := 0

	for _, line := range lines {
		lineLen := len(line) + 1
		if length+lineLen > blockChunkLen && len(chunk) > 0 {
			chunks = append(chunks, joinLines(chunk))
			chunk = []string{line}
			length = lineLen
		} else {
			chunk = append(chunk, line)
			length += lineLen
		}
	}
	if len(chunk) > 0 {
		chunks = append(chunks, joinLines(chunk))
	}

	for i, c := range chunks {
		fieldName := name
		if i > 0 {
			fieldName = name + " (cont.)"
		}
		b.AddField(fieldName, c, false)
	}
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// Messages returns the accumulated sequence. Messages without fields
// are dropped; an input that produced nothing yields nil.
func (b *Builder) Messages() []model.Message {
	msgs := b.msgs
	if len(b.cur.Fields) > 0 {
		msgs = append(msgs, b.cur)
	}
	if len(msgs) == 0 {
		return nil
	}
	return msgs
}
