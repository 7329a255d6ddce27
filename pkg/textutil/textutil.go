// Package textutil holds the small formatting helpers feed and message
// screens apply to backend content: HTML-bearing excerpts, timestamps and
// large counts.
package textutil

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// StripHTML reduces an HTML fragment to its visible text. Script and style
// bodies are dropped entirely; runs of whitespace collapse to one space.
func StripHTML(s string) string {
	tok := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := tok.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tok.Text())
				b.WriteByte(' ')
			}
		}
	}
}

// RelativeTime renders t relative to now the way the message list shows
// it: "now", minutes, hours, days, then the plain date.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// CompactNumber renders counts the way reaction badges show them:
// 999, 1.2K, 3.4M.
func CompactNumber(n int64) string {
	switch {
	case n < 1000 && n > -1000:
		return fmt.Sprintf("%d", n)
	case n < 1000000 && n > -1000000:
		return trimZero(fmt.Sprintf("%.1fK", float64(n)/1000))
	default:
		return trimZero(fmt.Sprintf("%.1fM", float64(n)/1000000))
	}
}

func trimZero(s string) string {
	return strings.Replace(s, ".0", "", 1)
}
