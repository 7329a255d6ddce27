package textutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text untouched", in: "hello world", want: "hello world"},
		{name: "tags removed", in: "<p>hello <b>world</b></p>", want: "hello world"},
		{name: "script body dropped", in: `<p>hi</p><script>alert("x")</script><p>there</p>`, want: "hi there"},
		{name: "style body dropped", in: "<style>p{color:red}</style>visible", want: "visible"},
		{name: "whitespace collapsed", in: "<div>one\n\t two   three</div>", want: "one two three"},
		{name: "entities decoded", in: "fish &amp; chips", want: "fish & chips"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.in))
		})
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{name: "just now", ago: 10 * time.Second, want: "now"},
		{name: "under a minute", ago: 59 * time.Second, want: "now"},
		{name: "minutes", ago: 5 * time.Minute, want: "5m"},
		{name: "last minute of the hour", ago: 59 * time.Minute, want: "59m"},
		{name: "hours", ago: 3 * time.Hour, want: "3h"},
		{name: "almost a day", ago: 23 * time.Hour, want: "23h"},
		{name: "days", ago: 2 * 24 * time.Hour, want: "2d"},
		{name: "almost a week", ago: 6 * 24 * time.Hour, want: "6d"},
		{name: "older falls back to date", ago: 8 * 24 * time.Hour, want: "Jun 7, 2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.ago), now))
		})
	}
}

func TestCompactNumber(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{name: "zero", n: 0, want: "0"},
		{name: "under a thousand", n: 999, want: "999"},
		{name: "round thousand", n: 1000, want: "1K"},
		{name: "thousands with fraction", n: 1234, want: "1.2K"},
		{name: "round million", n: 2000000, want: "2M"},
		{name: "millions with fraction", n: 3400000, want: "3.4M"},
		{name: "negative", n: -1500, want: "-1.5K"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompactNumber(tt.n))
		})
	}
}
