package web

import (
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/image/draw"
)

const (
	maxUploadSize = 8 * 1024 * 1024 // 8MB, phone photos
	maxScanSize   = 1024            // Longest edge handed to the QR decoder
)

// handleScan decodes a QR code from an uploaded photo and pairs with the id
// it carries.
func handleScan(c *gin.Context, d Deck) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		log.Printf("[web] Failed to get uploaded file: %v", err)
		abortError(c, http.StatusBadRequest, errors.New("upload an image in the \"image\" field"))
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		abortError(c, http.StatusRequestEntityTooLarge, errors.New("file too large, maximum size is 8MB"))
		return
	}

	// Detect content type from file content (not just header)
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		abortError(c, http.StatusBadRequest, errors.New("failed to read uploaded file"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}

	if !isAllowedImageType(http.DetectContentType(buffer[:n])) {
		abortError(c, http.StatusUnsupportedMediaType, errors.New("only PNG, JPEG and GIF images are supported"))
		return
	}

	img, format, err := image.Decode(file)
	if err != nil {
		abortError(c, http.StatusBadRequest, errors.New("failed to decode image"))
		return
	}
	log.Printf("[web] Scanning %s image %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())

	id, err := d.ScanAndConnect(resizeImage(img, maxScanSize))
	switch {
	case err != nil && id == "":
		abortError(c, http.StatusUnprocessableEntity, err)
	case err != nil:
		abortError(c, connectStatus(err), err)
	default:
		c.JSON(http.StatusAccepted, gin.H{"peerId": id})
	}
}

// isAllowedImageType checks if the content type is an image we can decode
func isAllowedImageType(contentType string) bool {
	allowed := []string{
		"image/png",
		"image/jpeg",
		"image/gif",
	}
	for _, t := range allowed {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// resizeImage shrinks an image to fit within maxSize while maintaining
// aspect ratio. Smaller images are returned untouched.
func resizeImage(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxSize && height <= maxSize {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = (height * maxSize) / width
	} else {
		newHeight = maxSize
		newWidth = (width * maxSize) / height
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
