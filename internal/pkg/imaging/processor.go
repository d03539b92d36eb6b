package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
)

// Classifier input dimensions. The damage model is trained on 224x224 crops.
const (
	classifierSize = 224
	maxWidth       = 2000
	maxHeight      = 2000
	jpegQuality    = 85
)

// ProcessedPhoto contains the stored photo plus the classifier crop
type ProcessedPhoto struct {
	Original    []byte
	ModelInput  []byte
	ContentType string
	Width       int
	Height      int
}

// Processor normalizes uploaded device photos
type Processor struct{}

// NewProcessor creates a photo processor
func NewProcessor() *Processor {
	return &Processor{}
}

// Process decodes an uploaded photo, bounds its dimensions, and produces
// the square crop the damage classifier consumes.
func (p *Processor) Process(r io.Reader) (*ProcessedPhoto, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		src = imaging.Fit(src, maxWidth, maxHeight, imaging.Lanczos)
		bounds = src.Bounds()
	}

	crop := imaging.Fill(src, classifierSize, classifierSize, imaging.Center, imaging.Lanczos)

	original, err := encodeJPEG(src)
	if err != nil {
		return nil, err
	}
	modelInput, err := encodeJPEG(crop)
	if err != nil {
		return nil, err
	}

	return &ProcessedPhoto{
		Original:    original,
		ModelInput:  modelInput,
		ContentType: "image/jpeg",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
