package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/pulse-generator/internal/status"
	"github.com/sweeney/pulse-generator/internal/waveform"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Pulse Generator</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Pulse Generator</h1>

<h2>Mode</h2>
<table>
<tr><th>Data</th><td id="data-state" class="{{if .Flags.DataEnabled}}on{{else}}off{{end}}">{{if .Flags.DataEnabled}}ENABLED{{else}}DISABLED{{end}}</td></tr>
<tr><th>Direction</th><td id="mode">{{.Mode}}</td></tr>
<tr><th>Last frame</th><td>{{if .LastFrame.IsZero}}never{{else}}{{.LastFrame.UTC.Format "2006-01-02T15:04:05Z"}}{{end}}</td></tr>
</table>

<h2>Frame</h2>
<table>
<tr><th>On-times</th><td>{{range $i, $p := .Pulses}}{{if $i}}, {{end}}{{$p.OnTime}}{{end}} us</td></tr>
<tr><th>Off-time</th><td>{{.OffTime}} us</td></tr>
<tr><th>Idle</th><td>{{.IdleGap}} us</td></tr>
<tr><th>Sync</th><td>{{.SyncWidth}} us</td></tr>
<tr><th>Duration</th><td>{{.Duration}} us</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Enable toggles</th><td>{{.Counts.EnableToggles}}</td></tr>
<tr><th>Select toggles</th><td>{{.Counts.SelectToggles}}</td></tr>
<tr><th>Frames</th><td>{{.Counts.Frames}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .Config.Broker}}{{if .MQTTConnected}}connected{{else}}disconnected{{end}}{{else}}disabled{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Chip</th><td>{{.Config.Chip}}</td></tr>
<tr><th>Pins</th><td>enable {{.Config.PinEnable}}, select {{.Config.PinSelect}}, data {{.Config.PinData}}, sync {{.Config.PinSync}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	dir := waveform.DirectionFor(snap.Flags.Reversed)
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		Mode      string
		Pulses    []waveform.Pulse
		OffTime   uint64
		IdleGap   uint64
		SyncWidth uint64
		Duration  uint64
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		Mode:      dir.String(),
		Pulses:    waveform.Frame(dir),
		OffTime:   waveform.OffTime,
		IdleGap:   waveform.IdleGap,
		SyncWidth: waveform.SyncWidth,
		Duration:  waveform.FrameDuration(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.WithField("component", "web").WithError(err).Warn("render status page")
	}
}
