package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/touchlight/internal/status"
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
	"modeOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"cells": patternCells,
}).Parse(indexHTML))

// patternCells turns a '0'/'1' pattern into one bool per step.
func patternCells(pattern string) []bool {
	out := make([]bool, len(pattern))
	for i := 0; i < len(pattern); i++ {
		out[i] = pattern[i] == '1'
	}
	return out
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Touchlight</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.active { color: green; font-weight: bold; }
.idle { color: #888; }
.busy { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.pattern { display: flex; flex-wrap: wrap; gap: 1px; margin: 1em 0; }
.cell { width: 5px; height: 16px; background: #eee; }
.cell.lit { background: #f5c518; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Touchlight{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Touch Pad</h2>
<table>
<tr><th>State</th><td id="touch-state" class="{{if .History.Active}}active{{else}}idle{{end}}">{{.History}}</td></tr>
<tr><th>Level</th><td id="touch-level">{{.Level}}</td></tr>
<tr><th>Baseline</th><td id="touch-baseline">{{.Baseline}}</td></tr>
<tr><th>Excursion</th><td>{{.Excursion}}</td></tr>
<tr><th>Settled</th><td>{{if .Settled}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Sequence</h2>
<table>
<tr><th>Mode</th><td id="seq-mode" class="{{if eq (modeOrUnknown (printf "%s" .Mode)) "PLAYBACK" "FOLLOW"}}idle{{else}}busy{{end}}">{{modeOrUnknown (printf "%s" .Mode)}}</td></tr>
<tr><th>Light stored</th><td>{{if .HasLight}}yes{{else}}no{{end}}</td></tr>
<tr><th>Sleep</th><td>{{.Depth}}</td></tr>
</table>
{{if .Pattern}}<div id="pattern" class="pattern">{{range cells .Pattern}}<span class="cell{{if .}} lit{{end}}"></span>{{end}}</div>{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Touch start</th><td>{{.Counts.TouchStart}}</td></tr>
<tr><th>Touch stop</th><td>{{.Counts.TouchStop}}</td></tr>
<tr><th>Countdowns</th><td>{{.Counts.Countdown}}</td></tr>
<tr><th>Recorded</th><td>{{.Counts.Recorded}}</td></tr>
</table>

<h2>Capture</h2>
<table>
<tr><th>Cycles</th><td>{{.Capture.Cycles}}</td></tr>
<tr><th>Errors</th><td>{{.Capture.Errors}}</td></tr>
<tr><th>Rejected ticks</th><td>{{.Capture.Rejected}}</td></tr>
<tr><th>Overwritten samples</th><td>{{.Capture.Overwrites}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Passes</th><td>{{.Passes}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.Chip}} pad {{.Config.PinPad}}, led {{.Config.PinLED}}{{if .Config.Calibrate}} (calibrate){{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/pattern">pattern</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "home/touchlight/events";
  var dot = document.getElementById("live-dot");
  var stateEl = document.getElementById("touch-state");
  var levelEl = document.getElementById("touch-level");
  var baselineEl = document.getElementById("touch-baseline");
  var modeEl = document.getElementById("seq-mode");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function setMode(mode) {
    modeEl.textContent = mode;
    modeEl.className = mode === "PLAYBACK" ? "idle" : "busy";
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      var ev = msg.touchlight;
      if (!ev) {
        return;
      }
      levelEl.textContent = ev.level;
      baselineEl.textContent = ev.baseline;
      switch (ev.event) {
      case "TOUCH_START":
        stateEl.textContent = "START";
        stateEl.className = "active";
        break;
      case "TOUCH_STOP":
        stateEl.textContent = "STOP";
        stateEl.className = "idle";
        break;
      case "COUNTDOWN":
        setMode("COUNTDOWN");
        break;
      case "RECORDING":
        setMode("RECORDING");
        break;
      case "RECORDED":
        setMode("PLAYBACK");
        location.reload();
        break;
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
