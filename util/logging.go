package util

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/coreos/go-systemd/v22/journal"
)

// journalWriter forwards each log line to the systemd journal.
type journalWriter struct{}

func (journalWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	priority := journal.PriInfo
	if strings.Contains(msg, "Error") || strings.Contains(msg, "error") || strings.Contains(msg, "failed") {
		priority = journal.PriErr
	}
	if err := journal.Send(msg, priority, map[string]string{"SYSLOG_IDENTIFIER": Name}); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetupLogging points the standard logger at journald when requested and
// available. It reports whether the journal is in use.
func SetupLogging(withJournald bool) bool {
	if !withJournald {
		return false
	}
	if !journal.Enabled() {
		log.Printf("Journald requested but not available, keeping stderr logging")
		return false
	}
	log.SetFlags(0)
	log.SetOutput(io.Writer(journalWriter{}))
	return true
}

// NotifyReady tells systemd the node is serving. A missing NOTIFY_SOCKET is
// not an error.
func NotifyReady() {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Printf("Failed to notify systemd: %v", err)
		return
	}
	if sent {
		log.Printf("Notified systemd of readiness")
	}
}

// NotifyStopping is the shutdown counterpart of NotifyReady.
func NotifyStopping() {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		log.Printf("Failed to notify systemd: %v", err)
	}
}

// NotifyStatus publishes a one-line status shown by systemctl status.
func NotifyStatus(format string, args ...any) {
	if _, err := daemon.SdNotify(false, "STATUS="+fmt.Sprintf(format, args...)); err != nil {
		log.Printf("Failed to notify systemd: %v", err)
	}
}
