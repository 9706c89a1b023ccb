package db

import (
	"log"
	"strconv"
)

// AlertsKey holds the persisted alerts flag.
const AlertsKey = "settings.alerts"

// ReadBool returns the stored flag, or def when absent or unparsable.
func (d *DB) ReadBool(key string, def bool) bool {
	raw, ok, err := d.Get(key)
	if err != nil {
		log.Printf("Failed to read %s: %v", key, err)
		return def
	}
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Ignoring malformed %s value %q", key, raw)
		return def
	}
	return v
}

func (d *DB) WriteBool(key string, v bool) error {
	return d.Put(key, strconv.FormatBool(v))
}

// ReadString returns the stored value or def.
func (d *DB) ReadString(key, def string) string {
	raw, ok, err := d.Get(key)
	if err != nil {
		log.Printf("Failed to read %s: %v", key, err)
		return def
	}
	if !ok {
		return def
	}
	return raw
}
