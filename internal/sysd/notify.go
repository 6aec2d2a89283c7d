// Package sysd wraps the sd_notify protocol. Every call is a no-op when
// the process is not running under systemd.
package sysd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "finbeat/pkg/logx"
)

// NotifyReady tells systemd startup has finished.
func NotifyReady(log logx.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Warn("sd_notify ready failed", logx.Err(err))
		return
	}
	if sent {
		log.Debug("sd_notify: READY=1")
	}
}

// NotifyStopping tells systemd shutdown has begun.
func NotifyStopping(log logx.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		log.Warn("sd_notify stopping failed", logx.Err(err))
		return
	}
	if sent {
		log.Debug("sd_notify: STOPPING=1")
	}
}

// WatchdogLoop pings the systemd watchdog at half its configured interval
// until ctx is canceled. Returns immediately when no watchdog is armed.
func WatchdogLoop(ctx context.Context, log logx.Logger) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}

	t := time.NewTicker(interval / 2)
	defer t.Stop()
	log.Info("systemd watchdog armed", logx.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				log.Warn("sd_notify watchdog failed", logx.Err(err))
			}
		}
	}
}
