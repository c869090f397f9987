package digest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"devona/internal/model"
)

func TestTruncateField(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantLen int
		marker  bool
	}{
		{name: "short value untouched", length: 10, wantLen: 10},
		{name: "exact limit untouched", length: 1024, wantLen: 1024},
		{name: "one over gets marker", length: 1025, wantLen: 1023, marker: true},
		{name: "far over gets marker", length: 5000, wantLen: 1023, marker: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateField(strings.Repeat("a", tt.length))
			if len(got) != tt.wantLen {
				t.Errorf("length = %d, want %d", len(got), tt.wantLen)
			}
			if len(got) > maxFieldLen {
				t.Errorf("length %d exceeds field limit", len(got))
			}
			if tt.marker != strings.HasSuffix(got, truncationMarker) {
				t.Errorf("marker presence = %v, want %v", !tt.marker, tt.marker)
			}
		})
	}
}

func TestBuilderFieldCountSpill(t *testing.T) {
	b := New("Digest", "", "footer", time.Time{})
	for i := 0; i < maxFields+1; i++ {
		b.AddField(fmt.Sprintf("Field %d", i), "value", false)
	}

	msgs := b.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if len(msgs[0].Fields) != maxFields {
		t.Errorf("first message has %d fields, want %d", len(msgs[0].Fields), maxFields)
	}
	if len(msgs[1].Fields) != 1 {
		t.Errorf("second message has %d fields, want 1", len(msgs[1].Fields))
	}
	if want := "Digest (continued)"; msgs[1].Title != want {
		t.Errorf("continuation title = %q, want %q", msgs[1].Title, want)
	}
	if msgs[1].Fields[0].Name != "Field 25" {
		t.Errorf("spilled field = %q, want %q", msgs[1].Fields[0].Name, "Field 25")
	}
}

func TestBuilderSizeSpill(t *testing.T) {
	b := New("Digest", "", "footer", time.Time{})
	// Six near-limit fields exceed the total message ceiling.
	for i := 0; i < 6; i++ {
		b.AddField(fmt.Sprintf("Field %d", i), strings.Repeat("x", 1020), false)
	}

	msgs := b.Messages()
	if len(msgs) < 2 {
		t.Fatalf("got %d messages, want at least 2", len(msgs))
	}
	for i, msg := range msgs {
		size := len(msg.Description)
		for _, f := range msg.Fields {
			size += len(f.Name) + len(f.Value)
		}
		if size > maxMessageLen {
			t.Errorf("message %d size %d exceeds limit", i, size)
		}
	}
}

func TestBuilderAddBlock(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, strings.Repeat("y", 100))
	}

	b := New("Digest", "", "footer", time.Time{})
	b.AddBlock("Changes", lines)

	msgs := b.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}

	fields := msgs[0].Fields
	if len(fields) < 2 {
		t.Fatalf("got %d fields, want chunking into several", len(fields))
	}
	if fields[0].Name != "Changes" {
		t.Errorf("first chunk name = %q, want %q", fields[0].Name, "Changes")
	}
	for _, f := range fields[1:] {
		if f.Name != "Changes (cont.)" {
			t.Errorf("chunk name = %q, want %q", f.Name, "Changes (cont.)")
		}
	}
	for i, f := range fields {
		if len(f.Value) > maxFieldLen {
			t.Errorf("chunk %d length %d exceeds field limit", i, len(f.Value))
		}
		if strings.HasSuffix(f.Value, truncationMarker) {
			t.Errorf("chunk %d was truncated instead of chunked", i)
		}
	}

	var joined []string
	for _, f := range fields {
		joined = append(joined, strings.Split(f.Value, "\n")...)
	}
	if diff := cmp.Diff(lines, joined); diff != "" {
		t.Errorf("chunking lost lines (-want +got):\n%s", diff)
	}
}

func TestBuilderDescription(t *testing.T) {
	b := New("Digest", "https://example.com", "footer", time.Time{})
	b.SetDescription("intro text")
	b.AddField("Field", "value", false)

	msgs := b.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Description != "intro text" {
		t.Errorf("description = %q, want %q", msgs[0].Description, "intro text")
	}

	b = New("Digest", "", "footer", time.Time{})
	b.SetDescription(strings.Repeat("z", maxDescriptionLen+1))
	b.AddField("Field", "value", false)
	if got := b.Messages()[0].Description; got != "" {
		t.Errorf("oversized description kept, length %d", len(got))
	}
}

func TestBuilderEmpty(t *testing.T) {
	b := New("Digest", "", "footer", time.Time{})
	if msgs := b.Messages(); msgs != nil {
		t.Fatalf("expected nil for empty builder, got %+v", msgs)
	}

	// A description without any fields is still nothing to deliver.
	b = New("Digest", "", "footer", time.Time{})
	b.SetDescription("intro")
	if msgs := b.Messages(); msgs != nil {
		t.Fatalf("expected nil for field-less builder, got %+v", msgs)
	}
}

func TestBuilderDeterministic(t *testing.T) {
	build := func() []model.Message {
		b := New("Digest", "https://example.com", "footer", time.Date(2026, time.January, 15, 4, 0, 0, 0, time.UTC))
		b.SetDescription("intro")
		for i := 0; i < 30; i++ {
			b.AddField(fmt.Sprintf("Field %d", i), strings.Repeat("v", 200), i%2 == 0)
		}
		return b.Messages()
	}

	if diff := cmp.Diff(build(), build()); diff != "" {
		t.Errorf("identical input produced different output (-first +second):\n%s", diff)
	}
}
