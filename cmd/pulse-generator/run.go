package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/pulse-generator/internal/clock"
	"github.com/sweeney/pulse-generator/internal/config"
	"github.com/sweeney/pulse-generator/internal/control"
	"github.com/sweeney/pulse-generator/internal/gpio"
	"github.com/sweeney/pulse-generator/internal/logic"
	"github.com/sweeney/pulse-generator/internal/mqtt"
	"github.com/sweeney/pulse-generator/internal/status"
	"github.com/sweeney/pulse-generator/internal/waveform"
	"github.com/sweeney/pulse-generator/internal/web"
)

func runGenerator(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return run(cfg)
}

func run(cfg config.Config) error {
	logger := log.WithField("component", "main")
	pins := cfg.GPIOPins()

	// Initialize GPIO
	dev, err := gpio.NewRealIO(pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			logger.WithError(err).Warn("release gpio")
		}
	}()

	// Initialize MQTT
	var publisher mqtt.Publisher = mqtt.Discard{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.Broker != "" {
		rp := mqtt.NewRealPublisher(cfg.Broker)
		publisher, mqttStatus = rp, rp
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		logger.WithError(err).Warn("failed to publish startup event")
	}

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Infof("http status server listening on %s", cfg.HTTPAddr)
	}

	logger.WithFields(log.Fields{
		"chip":     pins.Chip,
		"enable":   pins.Enable,
		"select":   pins.Select,
		"data":     pins.Data,
		"sync":     pins.Sync,
		"frame_us": waveform.FrameDuration(),
		"broker":   cfg.Broker,
	}).Info("started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctrl := control.New(dev, dev, clock.NewMonotonic(),
		control.WithPublisher(publisher),
		control.WithTracker(tracker),
	)
	heartbeat := logic.NewHeartbeat(cfg.Heartbeat.Duration, time.Now())

	// Busy-wait delays need the thread to themselves.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	return runLoop(ctrl, publisher, mqttStatus, tracker, heartbeat, cfg.Poll.Duration, time.Now, sigCh)
}

func runLoop(ctrl *control.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat *logic.Heartbeat, poll time.Duration, now func() time.Time, sig <-chan os.Signal) error {
	logger := log.WithField("component", "main")

	for {
		select {
		case s := <-sig:
			logger.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				logger.WithError(err).Warn("failed to publish shutdown event")
			}
			return nil
		default:
		}

		if err := ctrl.Step(); err != nil {
			return fmt.Errorf("control loop: %w", err)
		}

		if tracker != nil && mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}

		// Check for heartbeat
		if hb := heartbeat.Check(now(), ctrl.Counts()); hb != nil {
			logger.WithFields(log.Fields{
				"uptime":         hb.Uptime,
				"enable_toggles": hb.Counts.EnableToggles,
				"select_toggles": hb.Counts.SelectToggles,
				"frames":         hb.Counts.Frames,
			}).Info("heartbeat")

			hbEvent := mqtt.SystemEvent{
				Timestamp: hb.Timestamp,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				snap := tracker.Snapshot()
				hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				logger.WithError(err).Warn("heartbeat publish error")
			}
		}

		if poll > 0 && !ctrl.Flags().DataEnabled {
			time.Sleep(poll)
		}
	}
}

func statusConfig(cfg config.Config) status.Config {
	pins := cfg.GPIOPins()
	return status.Config{
		Chip:        pins.Chip,
		PinEnable:   pins.Enable,
		PinSelect:   pins.Select,
		PinData:     pins.Data,
		PinSync:     pins.Sync,
		PinEnLED:    pins.EnableLED,
		PinSelLED:   pins.SelectLED,
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
	}
}
