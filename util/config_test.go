package util

import (
	"strings"
	"testing"
	"time"
)

func TestParseConfDefaults(t *testing.T) {
	c, err := parseConf(embeddedConfig)
	if err != nil {
		t.Fatalf("parseConf failed: %v", err)
	}

	if c.Conf.SshPort != 23235 {
		t.Errorf("Expected sshPort 23235, got %d", c.Conf.SshPort)
	}
	if c.Conf.HttpPort != 9797 {
		t.Errorf("Expected httpPort 9797, got %d", c.Conf.HttpPort)
	}
	if c.Conf.LogCapacity != MinLogCapacity {
		t.Errorf("Expected logCapacity %d, got %d", MinLogCapacity, c.Conf.LogCapacity)
	}
	if c.Conf.NotifyTimeout != 2*time.Second {
		t.Errorf("Expected notifyTimeout 2s, got %v", c.Conf.NotifyTimeout)
	}
	if !c.Conf.AlertsEnabled {
		t.Error("Expected alerts enabled by default")
	}
	if c.Conf.DbDriver != "sqlite" {
		t.Errorf("Expected sqlite driver, got %s", c.Conf.DbDriver)
	}
}

func TestParseConfLogCapacityClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{"zero uses minimum", "0", MinLogCapacity},
		{"below minimum raised", "10", MinLogCapacity},
		{"within range kept", "75", 75},
		{"above maximum capped", "500", MaxLogCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := []byte("conf:\n  logCapacity: " + tt.value + "\n")
			c, err := parseConf(buf)
			if err != nil {
				t.Fatalf("parseConf failed: %v", err)
			}
			if c.Conf.LogCapacity != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, c.Conf.LogCapacity)
			}
		})
	}
}

func TestParseConfEnvOverlay(t *testing.T) {
	t.Setenv("DECKHAND_HTTPPORT", "8181")
	t.Setenv("DECKHAND_PUSH_URL", "https://ntfy.example.com/deck")
	t.Setenv("DECKHAND_NOTIFY_TIMEOUT", "500ms")
	t.Setenv("DECKHAND_ALERTS_ENABLED", "false")
	t.Setenv("DECKHAND_ALLOWED_KEYS", "ssh-ed25519 AAAA one;ssh-ed25519 BBBB two")

	c, err := parseConf(embeddedConfig)
	if err != nil {
		t.Fatalf("parseConf failed: %v", err)
	}

	if c.Conf.HttpPort != 8181 {
		t.Errorf("Expected httpPort 8181, got %d", c.Conf.HttpPort)
	}
	if c.Conf.PushURL != "https://ntfy.example.com/deck" {
		t.Errorf("Unexpected pushURL %q", c.Conf.PushURL)
	}
	if c.Conf.NotifyTimeout != 500*time.Millisecond {
		t.Errorf("Expected 500ms, got %v", c.Conf.NotifyTimeout)
	}
	if c.Conf.AlertsEnabled {
		t.Error("Expected env to disable alerts")
	}
	if len(c.Conf.AllowedKeys) != 2 {
		t.Fatalf("Expected 2 allowed keys, got %d", len(c.Conf.AllowedKeys))
	}
	if !strings.HasSuffix(c.Conf.AllowedKeys[1], "two") {
		t.Errorf("Unexpected second key %q", c.Conf.AllowedKeys[1])
	}
}

func TestParseConfInvalidYAML(t *testing.T) {
	_, err := parseConf([]byte("conf: [unclosed"))
	if err == nil {
		t.Fatal("Expected error for invalid yaml")
	}
}

func TestAdvertisedAddr(t *testing.T) {
	c := &AppConfig{}
	c.Conf.Host = "10.0.0.5"
	c.Conf.HttpPort = 9797

	if got := c.AdvertisedAddr(); got != "10.0.0.5:9797" {
		t.Errorf("Expected 10.0.0.5:9797, got %s", got)
	}

	c.Conf.AdvertiseAddr = "deck.lan:80"
	if got := c.AdvertisedAddr(); got != "deck.lan:80" {
		t.Errorf("Expected advertise override, got %s", got)
	}
}
