package query

// This file contains full-run report generation: a self-contained HTML
// page with inlined styling and screenshots, or a JSON mirror of the
// run model with attachment metadata only.

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"strings"
	"time"
)

// Report formats accepted by GenerateReport.
const (
	FormatHTML = "html"
	FormatJSON = "json"
)

// GenerateReport renders the whole run as a self-contained artifact.
func (e *Engine) GenerateReport(format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(e.run, "", "  ")
	case FormatHTML:
		return e.generateHTML(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q (expected html or json)", format)
	}
}

const reportStyle = `
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
.summary { color: #555; margin-bottom: 1.5em; }
details { border: 1px solid #ddd; border-radius: 6px; margin: .6em 0; padding: .4em .8em; }
summary { cursor: pointer; font-weight: 600; }
.passed > summary { color: #1a7f37; }
.failed > summary { color: #cf222e; }
pre { background: #f6f8fa; padding: .8em; border-radius: 6px; overflow-x: auto; font-size: .85em; }
table { border-collapse: collapse; font-size: .85em; }
td, th { border: 1px solid #ddd; padding: .25em .6em; text-align: left; }
img.shot { max-width: 640px; display: block; margin: .5em 0; border: 1px solid #ccc; }
`

func (e *Engine) generateHTML() []byte {
	summary := e.run.Summary()

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>Run %s</title>", html.EscapeString(shortID(e.run.ID)))
	b.WriteString("<style>" + reportStyle + "</style></head><body>\n")

	fmt.Fprintf(&b, "<h1>Run %s</h1>\n", html.EscapeString(shortID(e.run.ID)))
	fmt.Fprintf(&b, "<div class=\"summary\">%s &middot; %d tests &middot; %d passed &middot; %d failed &middot; %s</div>\n",
		e.run.Timestamp.Format(time.RFC3339), summary.Total, summary.Passed, summary.Failed,
		e.run.Duration.Round(time.Millisecond))

	for i, test := range e.run.Tests {
		cls := string(test.Status)
		open := ""
		if test.Status != "passed" {
			open = " open"
		}
		fmt.Fprintf(&b, "<details class=%q%s><summary>#%d %s — %s (%s)</summary>\n",
			cls, open, i, html.EscapeString(test.TestTitle), test.Status,
			test.Duration.Round(time.Millisecond))

		if test.Error != "" {
			fmt.Fprintf(&b, "<pre>%s</pre>\n", html.EscapeString(test.Error))
		}

		if len(test.Actions) > 0 {
			b.WriteString("<table><tr><th>#</th><th>Action</th><th>ms</th><th>Requests</th><th>Console</th></tr>\n")
			for j, action := range test.Actions {
				label := action.Title
				if label == "" {
					label = action.Type
				}
				fmt.Fprintf(&b, "<tr><td>%d</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td></tr>\n",
					j, html.EscapeString(label), action.Timing.DurationMs,
					len(action.Network.Requests), len(action.Console))
			}
			b.WriteString("</table>\n")
		}

		for _, att := range test.Attachments {
			data, err := os.ReadFile(att.Path)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "<img class=\"shot\" alt=%q src=\"data:%s;base64,%s\">\n",
				html.EscapeString(att.Name), att.ContentType,
				base64.StdEncoding.EncodeToString(data))
		}

		b.WriteString("</details>\n")
	}

	b.WriteString("</body></html>\n")
	return []byte(b.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
