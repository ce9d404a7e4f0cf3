package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Touch         TouchJSON    `json:"touch"`
	Sequencer     SequenceJSON `json:"sequencer"`
	Sleep         string       `json:"sleep"`
	Passes        uint64       `json:"passes"`
	LastPass      string       `json:"last_pass,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Capture       CaptureJSON  `json:"capture"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// TouchJSON is the JSON representation of the touch pad state.
type TouchJSON struct {
	Level     uint16 `json:"level"`
	Baseline  uint16 `json:"baseline"`
	Excursion int32  `json:"excursion"`
	History   string `json:"history"`
	Settled   bool   `json:"settled"`
}

// SequenceJSON is the JSON representation of the light controller state.
type SequenceJSON struct {
	Mode     string `json:"mode"`
	Pattern  string `json:"pattern"`
	HasLight bool   `json:"has_light"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	TouchStart int `json:"touch_start"`
	TouchStop  int `json:"touch_stop"`
	Countdown  int `json:"countdown"`
	Recorded   int `json:"recorded"`
}

// CaptureJSON is the JSON representation of capture counters.
type CaptureJSON struct {
	Cycles     uint64 `json:"cycles"`
	Errors     uint64 `json:"errors"`
	Rejected   uint64 `json:"rejected"`
	Overwrites uint64 `json:"overwrites"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	WSBroker    string `json:"ws_broker,omitempty"`
	Chip        string `json:"chip"`
	PinPad      int    `json:"pin_pad"`
	PinLED      int    `json:"pin_led"`
	Calibrate   bool   `json:"calibrate,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	mode := string(snap.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}

	inner := StatusInner{
		Touch: TouchJSON{
			Level:     snap.Level,
			Baseline:  snap.Baseline,
			Excursion: snap.Excursion,
			History:   snap.History.String(),
			Settled:   snap.Settled,
		},
		Sequencer: SequenceJSON{
			Mode:     mode,
			Pattern:  snap.Pattern,
			HasLight: snap.HasLight,
		},
		Sleep:         snap.Depth.String(),
		Passes:        snap.Passes,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			TouchStart: snap.Counts.TouchStart,
			TouchStop:  snap.Counts.TouchStop,
			Countdown:  snap.Counts.Countdown,
			Recorded:   snap.Counts.Recorded,
		},
		Capture: CaptureJSON{
			Cycles:     snap.Capture.Cycles,
			Errors:     snap.Capture.Errors,
			Rejected:   snap.Capture.Rejected,
			Overwrites: snap.Capture.Overwrites,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			WSBroker:    snap.Config.WSBroker,
			Chip:        snap.Config.Chip,
			PinPad:      snap.Config.PinPad,
			PinLED:      snap.Config.PinLED,
			Calibrate:   snap.Config.Calibrate,
		},
	}
	if !snap.LastPass.IsZero() {
		inner.LastPass = snap.LastPass.UTC().Format(time.RFC3339Nano)
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the indented JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
