package web

const pageStyle = `
  body { font-family: -apple-system, sans-serif; margin: 2em auto; max-width: 60em; padding: 0 1em; color: #222; }
  h1 { font-size: 1.4em; }
  table { border-collapse: collapse; width: 100%; margin: 1em 0; }
  th, td { text-align: left; padding: 0.4em 0.8em; border-bottom: 1px solid #ddd; }
  .alerts { border: 1px solid #e0b4b4; background: #fff6f6; padding: 0.5em 1em; margin: 1em 0; border-radius: 4px; }
  .alerts.ok { border-color: #a3c293; background: #fcfff5; }
  .alert-item { padding: 0.2em 0; }
  .alert-item.ok { color: #2c662d; }
  .alert-item.error { color: #9f3a38; }
  .muted { color: #888; font-size: 0.9em; }
  a { color: #1a6bac; }
`

const probesTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title><style>` + pageStyle + `</style></head>
<body>
<h1>{{.Title}}</h1>
<div class="alerts{{if .AllOK}} ok{{end}}">
  <h3>{{if .AllOK}}✅ All Systems Normal{{else}}⚠️ Active Alerts{{end}}</h3>
  {{range .Alerts}}<div class="alert-item {{if .OK}}ok{{else}}error{{end}}">{{.Icon}} {{.Message}}</div>
  {{end}}
</div>
<table>
  <tr><th>Probe</th><th>Type</th><th>Value</th><th>Last Seen</th></tr>
  {{range .Probes}}<tr>
    <td><a href="/probes/{{.ID}}">{{.Name}}</a></td>
    <td>{{.TypeLabel}}</td>
    <td>{{.Value}}</td>
    <td>{{.LastSeen}}</td>
  </tr>
  {{end}}
</table>
<p class="muted">Generated {{.GeneratedAt}} · <a href="/admin">admin</a></p>
</body>
</html>
`

const probeTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title><style>` + pageStyle + `</style></head>
<body>
<h1>{{.Name}}</h1>
<table>
  <tr><th>Probe ID</th><td>{{.ID}}</td></tr>
  <tr><th>Type</th><td>{{.TypeLabel}}</td></tr>
  <tr><th>Value</th><td>{{.Value}}</td></tr>
  <tr><th>Last Seen</th><td>{{.LastSeen}}</td></tr>
</table>
<p class="muted"><a href="/probes">← all probes</a></p>
</body>
</html>
`

const adminTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title><style>` + pageStyle + `</style></head>
<body>
<h1>{{.Title}}</h1>
{{if .Triggered}}<p class="alert-item ok">Health check completed.</p>{{end}}
{{if .CheckError}}<p class="alert-item error">Health check failed: {{.CheckError}}</p>{{end}}
<form method="post" action="/admin/check"><button type="submit">Run health check now</button></form>

<h3>Thresholds</h3>
<table>
  <tr><th>Threshold</th><th>Current value</th></tr>
  {{range .Thresholds}}<tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>
  {{end}}
</table>

<h3>Stored alert state</h3>
<table>
  <tr><th>Alert</th><th>State</th><th>Since</th><th>Duration</th><th>Last Check</th><th>Last Clear</th><th>Last Value</th></tr>
  {{range .Records}}<tr>
    <td>{{.Key}}</td>
    <td>{{if .Active}}🚨 ACTIVE{{else}}clear{{end}}</td>
    <td>{{.Since}}</td>
    <td>{{.Duration}}</td>
    <td>{{.LastCheck}}</td>
    <td>{{.LastClear}}</td>
    <td>{{.Value}}</td>
  </tr>
  {{end}}
</table>
<p class="muted"><a href="/probes">← probes</a> · <a href="/debug">debug</a></p>
</body>
</html>
`

const debugTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title><style>` + pageStyle + `</style></head>
<body>
<h1>{{.Title}}</h1>
<table>
  <tr><th>Upstream base</th><td>{{.UpstreamBase}}</td></tr>
  <tr><th>Portal user</th><td>{{.PortalUser}}</td></tr>
  <tr><th>Portal session</th><td>{{.PortalSession}}</td></tr>
  <tr><th>Pushover token</th><td>{{.PushoverToken}}</td></tr>
  <tr><th>Pushover user</th><td>{{.PushoverUser}}</td></tr>
  <tr><th>Redis</th><td>{{.RedisAddr}}</td></tr>
</table>
<p class="muted"><a href="/admin">← admin</a></p>
</body>
</html>
`
