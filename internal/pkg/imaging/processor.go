package imaging

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// DefaultIconSize is the edge length of stored badge icons
const DefaultIconSize = 128

// Processor normalises uploaded images to square PNG icons
type Processor struct {
	size int
}

// NewProcessor creates an icon processor; size <= 0 uses DefaultIconSize
func NewProcessor(size int) *Processor {
	if size <= 0 {
		size = DefaultIconSize
	}
	return &Processor{size: size}
}

// Icon decodes data (JPEG, PNG or GIF), honours EXIF orientation,
// center-crops to a square and returns PNG bytes.
func (p *Processor) Icon(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	icon := imaging.Fill(img, p.size, p.size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, icon, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode icon: %w", err)
	}
	return buf.Bytes(), nil
}

// Size returns the configured edge length
func (p *Processor) Size() int {
	return p.size
}
