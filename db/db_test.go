package db

import (
	"testing"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	d, err := Open(DriverModernc, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("postgres", "x"); err == nil {
		t.Fatal("Expected error for unsupported driver")
	}
}

func TestKV(t *testing.T) {
	d := setupTestDB(t)

	t.Run("Get on missing key", func(t *testing.T) {
		_, ok, err := d.Get("nope")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if ok {
			t.Error("Expected missing key")
		}
	})

	t.Run("Put then Get", func(t *testing.T) {
		if err := d.Put("k", "v1"); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		v, ok, err := d.Get("k")
		if err != nil || !ok {
			t.Fatalf("Get failed: ok=%v err=%v", ok, err)
		}
		if v != "v1" {
			t.Errorf("Expected v1, got %s", v)
		}
	})

	t.Run("Put overwrites", func(t *testing.T) {
		if err := d.Put("k", "v2"); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		v, _, _ := d.Get("k")
		if v != "v2" {
			t.Errorf("Expected v2, got %s", v)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := d.Delete("k"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, ok, _ := d.Get("k"); ok {
			t.Error("Expected key to be gone")
		}
	})
}

func TestSettings(t *testing.T) {
	d := setupTestDB(t)

	if !d.ReadBool(AlertsKey, true) {
		t.Error("Expected default true when unset")
	}

	if err := d.WriteBool(AlertsKey, false); err != nil {
		t.Fatalf("WriteBool failed: %v", err)
	}
	if d.ReadBool(AlertsKey, true) {
		t.Error("Expected stored false")
	}

	d.Put(AlertsKey, "sometimes")
	if !d.ReadBool(AlertsKey, true) {
		t.Error("Expected default for malformed value")
	}

	if got := d.ReadString("settings.sample", "default"); got != "default" {
		t.Errorf("Expected default, got %s", got)
	}
	d.Put("settings.sample", "granted")
	if got := d.ReadString("settings.sample", "default"); got != "granted" {
		t.Errorf("Expected granted, got %s", got)
	}
}
