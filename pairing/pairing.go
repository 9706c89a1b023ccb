// Package pairing moves peer identifiers out of band as QR codes.
package pairing

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"sync"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/skip2/go-qrcode"
)

const DefaultPNGSize = 256

var ErrScannerClosed = errors.New("scanner closed")

// EncodePNG renders id as a QR code PNG of size×size pixels.
func EncodePNG(id string, size int) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("nothing to encode")
	}
	if size <= 0 {
		size = DefaultPNGSize
	}
	png, err := qrcode.Encode(id, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

// Terminal renders id with half-block characters for display in a TUI.
func Terminal(id string) (string, error) {
	q, err := qrcode.New(id, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return q.ToSmallString(false), nil
}

// Scanner decodes identifiers from images. Each owner creates its own and
// must Close it when the view that uses it goes away.
type Scanner struct {
	mu     sync.Mutex
	reader gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
	closed bool
}

func NewScanner() *Scanner {
	return &Scanner{
		reader: zxqrcode.NewQRCodeReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Scan decodes the first QR code found in an encoded image.
func (s *Scanner) Scan(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return s.ScanImage(img)
}

func (s *Scanner) ScanBytes(data []byte) (string, error) {
	return s.Scan(bytes.NewReader(data))
}

func (s *Scanner) ScanImage(img image.Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrScannerClosed
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to prepare image: %w", err)
	}
	res, err := s.reader.Decode(bmp, s.hints)
	s.reader.Reset()
	if err != nil {
		return "", fmt.Errorf("no QR code found: %w", err)
	}
	return strings.TrimSpace(res.GetText()), nil
}

// Close releases the decoder. It is safe to call more than once.
func (s *Scanner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.reader = nil
	return nil
}
