package report

import "html/template"

// chartPage is a self-contained page that lets the SVG fill the viewport.
var chartPage = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  html, body { margin: 0; padding: 0; height: 100%; width: 100%; background: #ffffff; }
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; }
  .chart { position: fixed; inset: 0; }
  .chart svg { width: 100vw; height: 100vh; display: block; }
  .meta { position: fixed; right: 12px; bottom: 8px; font-size: 11px; color: #6b7280; }
</style>
</head>
<body>
<div class="chart" data-ticker="{{.Ticker}}" data-time-frame="{{.TimeFrame}}">{{.SVG}}</div>
<div class="meta">{{.Ticker}} · {{.TimeFrame}} · {{.From}} to {{.To}} · generated {{.Generated}}</div>
</body>
</html>
`))
