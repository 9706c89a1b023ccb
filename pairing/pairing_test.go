package pairing

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"
)

const sampleID = "6f1c2a7e-3d4b-4c5a-9e8f-0a1b2c3d4e5f@192.168.1.20:9797"

func TestEncodeScanRoundTrip(t *testing.T) {
	data, err := EncodePNG(sampleID, 0)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != DefaultPNGSize {
		t.Errorf("Expected width %d, got %d", DefaultPNGSize, img.Bounds().Dx())
	}

	s := NewScanner()
	defer s.Close()

	got, err := s.ScanBytes(data)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got != sampleID {
		t.Errorf("Scanned %q, want %q", got, sampleID)
	}
}

func TestEncodeEmpty(t *testing.T) {
	if _, err := EncodePNG("", 128); err == nil {
		t.Error("Expected error for empty id")
	}
}

func TestTerminal(t *testing.T) {
	out, err := Terminal(sampleID)
	if err != nil {
		t.Fatalf("Terminal failed: %v", err)
	}
	if !strings.ContainsAny(out, "█▀▄") {
		t.Error("Expected block characters in terminal QR")
	}
	if len(strings.Split(strings.TrimSpace(out), "\n")) < 10 {
		t.Error("Terminal QR looks too small")
	}
}

func TestScanRejectsNonImage(t *testing.T) {
	s := NewScanner()
	defer s.Close()

	if _, err := s.ScanBytes([]byte("definitely not an image")); err == nil {
		t.Error("Expected error for non-image input")
	}
}

func TestScannerClosed(t *testing.T) {
	data, _ := EncodePNG(sampleID, 128)
	s := NewScanner()
	s.Close()
	s.Close()

	if _, err := s.ScanBytes(data); !errors.Is(err, ErrScannerClosed) {
		t.Errorf("Expected ErrScannerClosed, got %v", err)
	}
}
