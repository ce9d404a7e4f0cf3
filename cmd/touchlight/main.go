// Command touchlight senses a capacitive touch pad on a GPIO line and drives
// an LED loop recorder from it, publishing touch and sequencer events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sweeney/touchlight/internal/capture"
	"github.com/sweeney/touchlight/internal/config"
	"github.com/sweeney/touchlight/internal/gpio"
	"github.com/sweeney/touchlight/internal/mqtt"
	"github.com/sweeney/touchlight/internal/scheduler"
	"github.com/sweeney/touchlight/internal/sequencer"
	"github.com/sweeney/touchlight/internal/status"
	"github.com/sweeney/touchlight/internal/web"
)

// outboxSize bounds the events waiting for the MQTT publisher goroutine.
const outboxSize = 64

type options struct {
	configPath string
	printLevel bool
	calibrate  bool
	cfg        *config.Config
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// parseFlags loads the config file named by -config and applies any flags
// that were set explicitly on top of it.
func parseFlags(fs *flag.FlagSet, args []string) (*options, error) {
	d := config.Default()

	configPath := fs.String("config", "/etc/touchlight.yaml", "YAML config file (missing file uses defaults)")
	chip := fs.String("chip", d.GPIO.Chip, "GPIO character device")
	pinPad := fs.Int("pin-pad", d.GPIO.PadPin, "Line offset for the touch pad")
	pinLED := fs.Int("pin-led", d.GPIO.LEDPin, "Line offset for the LED")
	broker := fs.String("broker", d.MQTT.Broker, "MQTT broker address")
	wsBroker := fs.String("ws-broker", d.MQTT.WSBroker, `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	httpAddr := fs.String("http", d.HTTP.Addr, "HTTP status address (empty to disable)")
	heartbeat := fs.Duration("heartbeat", d.MQTT.Heartbeat, "Heartbeat interval (0 to disable)")
	printLevel := fs.Bool("print-level", false, "Run one capture cycle, print the level and exit")
	calibrate := fs.Bool("calibrate", false, "Drive the LED directly from the touch state and log every pass")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "chip":
			cfg.GPIO.Chip = *chip
		case "pin-pad":
			cfg.GPIO.PadPin = *pinPad
		case "pin-led":
			cfg.GPIO.LEDPin = *pinLED
		case "broker":
			cfg.MQTT.Broker = *broker
		case "ws-broker":
			cfg.MQTT.WSBroker = *wsBroker
		case "http":
			cfg.HTTP.Addr = *httpAddr
		case "heartbeat":
			cfg.MQTT.Heartbeat = *heartbeat
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return &options{
		configPath: *configPath,
		printLevel: *printLevel,
		calibrate:  *calibrate,
		cfg:        cfg,
	}, nil
}

func run(opts *options) error {
	cfg := opts.cfg

	pad, err := gpio.NewRealPad(cfg.GPIO.Chip, cfg.GPIO.PadPin, cfg.GPIO.HalfCycleTimeout)
	if err != nil {
		return fmt.Errorf("init touch pad: %w", err)
	}
	defer pad.Close()

	if opts.printLevel {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return printLevel(ctx, pad, os.Stdout)
	}

	led, err := gpio.NewRealLED(cfg.GPIO.Chip, cfg.GPIO.LEDPin, cfg.GPIO.LEDToggle)
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer led.Close()

	publisher, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.BufferSize)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	wsBroker := resolveWSBroker(cfg.MQTT.WSBroker, cfg.MQTT.Broker)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      scheduler.TickInterval.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		WSBroker:    wsBroker,
		Chip:        cfg.GPIO.Chip,
		PinPad:      cfg.GPIO.PadPin,
		PinLED:      cfg.GPIO.LEDPin,
		Calibrate:   opts.calibrate,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	var ctrl scheduler.Controller = sequencer.New()
	if opts.calibrate {
		ctrl = &sequencer.Follower{}
	}

	log.Printf("started: config=%s chip=%s pad=%d led=%d tick=%v broker=%s heartbeat=%v mode=%s",
		opts.configPath, cfg.GPIO.Chip, cfg.GPIO.PadPin, cfg.GPIO.LEDPin, scheduler.TickInterval,
		cfg.MQTT.Broker, cfg.MQTT.Heartbeat, ctrl.Mode())

	ticker := time.NewTicker(scheduler.TickInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loop{
		pad:        pad,
		led:        led,
		ctrl:       ctrl,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		heartbeat:  cfg.MQTT.Heartbeat,
		calibrate:  opts.calibrate,
		now:        time.Now,
		tick:       ticker.C,
		sig:        sigCh,
	})
}

// printLevel runs a single capture cycle and writes the raw level.
func printLevel(ctx context.Context, pad capture.Driver, w io.Writer) error {
	start, end, err := pad.Cycle(ctx)
	if err != nil {
		return fmt.Errorf("capture cycle: %w", err)
	}
	s := capture.Sample{Start: start, End: end}
	fmt.Fprintf(w, "level: %d (start=%d end=%d)\n", s.Elapsed(), start, end)
	return nil
}

// loop holds everything runLoop needs; tests substitute fakes.
type loop struct {
	pad        capture.Driver
	led        sequencer.LED
	ctrl       scheduler.Controller
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
	calibrate  bool
	now        func() time.Time
	tick       <-chan time.Time
	sig        <-chan os.Signal
}

// outbound is one message for the publisher goroutine.
type outbound struct {
	event  scheduler.Event
	system *mqtt.SystemEvent
}

// runLoop wires capture, scheduler and publishing together and blocks until
// a signal arrives. The scheduler pass never waits on the broker: events go
// through a bounded outbox drained by a separate goroutine.
func runLoop(l loop) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailbox := capture.NewMailbox()
	cycler := capture.NewCycler(l.pad, mailbox, l.led)
	sched := scheduler.New(l.ctrl, l.led, mailbox, scheduler.NewWakeSleeper(mailbox.Wake()), l.now)

	outbox := make(chan outbound, outboxSize)
	send := func(m outbound) {
		select {
		case outbox <- m:
		default:
			log.Printf("publish queue full, dropping %s", describe(m))
		}
	}

	pubDone := make(chan struct{})
	go func() {
		defer close(pubDone)
		for m := range outbox {
			var err error
			if m.system != nil {
				err = l.publisher.PublishSystem(*m.system)
			} else {
				err = l.publisher.Publish(m.event)
			}
			if err != nil {
				log.Printf("publish error (%s): %v", describe(m), err)
			}
		}
	}()

	report := func(r scheduler.Report) {
		for _, e := range r.Events {
			if e.Pattern != "" {
				log.Printf("event: %s (level=%d baseline=%d pattern=%s)", e.Type, e.Level, e.Baseline, e.Pattern)
			} else {
				log.Printf("event: %s (level=%d baseline=%d)", e.Type, e.Level, e.Baseline)
			}
			send(outbound{event: e})
		}

		if l.calibrate {
			log.Printf("pass: elapsed=%d level=%d baseline=%d excursion=%d history=%s led=%v",
				r.Sample.Elapsed(), r.Level, r.Baseline, r.Excursion, r.History, r.HasLight)
		}

		// Update status tracker for HTTP consumers
		if l.tracker != nil {
			l.tracker.Update(r, l.ctrl.Pattern(), sched.Passes(), sched.EventCountsSnapshot())
			l.tracker.SetCapture(cycler.Stats())
			if l.mqttStatus != nil {
				l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
			}
		}

		hb := sched.CheckHeartbeat(r.Time, l.heartbeat)
		if hb == nil {
			return
		}
		log.Printf("heartbeat: uptime=%v passes=%d touch_start=%d touch_stop=%d countdown=%d recorded=%d",
			hb.Uptime, hb.Passes, hb.Counts.TouchStart, hb.Counts.TouchStop, hb.Counts.Countdown, hb.Counts.Recorded)

		hbEvent := mqtt.SystemEvent{
			Timestamp: hb.Timestamp,
			Event:     "HEARTBEAT",
		}
		if l.tracker != nil {
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				l.tracker.SetNetwork(net)
			}
			hbEvent.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
		}
		send(outbound{system: &hbEvent})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cycler.Run(ctx, l.tick)
	}()
	go func() {
		defer wg.Done()
		sched.Run(ctx, report)
	}()

	s := <-l.sig
	log.Printf("received %v, shutting down", s)

	cancel()
	wg.Wait()
	close(outbox)
	<-pubDone

	if err := l.led.Set(false); err != nil {
		log.Printf("failed to turn led off: %v", err)
	}

	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	event := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     "SHUTDOWN",
		Reason:    signalName,
		Retained:  true,
	}
	if l.tracker != nil {
		l.tracker.SetCapture(cycler.Stats())
		if l.mqttStatus != nil {
			l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
		}
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", signalName)
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
	return nil
}

func describe(m outbound) string {
	if m.system != nil {
		return m.system.Event
	}
	return string(m.event.Type)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the ws-broker setting into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" || ws == "" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
