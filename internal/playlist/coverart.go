package playlist

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// coverArtProcessor downloads source cover art and converts it to the JPEG
// payload the cover upload endpoint accepts: neither dimension above
// maxPixels, encoded size at most maxBytes, base64-encoded.
type coverArtProcessor struct {
	httpClient *http.Client
	maxBytes   int
	maxPixels  int
}

func newCoverArtProcessor(maxBytes, maxPixels int, timeout time.Duration) *coverArtProcessor {
	if maxBytes <= 0 {
		maxBytes = 256000
	}
	if maxPixels <= 0 {
		maxPixels = 300
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &coverArtProcessor{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		maxPixels:  maxPixels,
	}
}

// Download fetches the cover image bytes from the source URL.
func (p *coverArtProcessor) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cover art download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cover art download failed: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Process decodes, resizes and re-encodes the image, returning base64 JPEG
// bytes. Encoding starts at quality 85 and falls back to 70 when the result
// exceeds the size limit.
func (p *coverArtProcessor) Process(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover image: %w", err)
	}

	img = p.resize(img)

	for _, quality := range []int{85, 70} {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode cover image: %w", err)
		}
		if buf.Len() <= p.maxBytes {
			encoded := make([]byte, base64.StdEncoding.EncodedLen(buf.Len()))
			base64.StdEncoding.Encode(encoded, buf.Bytes())
			return encoded, nil
		}
	}

	return nil, fmt.Errorf("cover image exceeds %d bytes after re-encoding", p.maxBytes)
}

// resize scales the image down so neither dimension exceeds maxPixels,
// preserving aspect ratio. Images already within bounds pass through.
func (p *coverArtProcessor) resize(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w <= p.maxPixels && h <= p.maxPixels {
		return img
	}

	scale := float64(p.maxPixels) / float64(w)
	if h > w {
		scale = float64(p.maxPixels) / float64(h)
	}

	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
