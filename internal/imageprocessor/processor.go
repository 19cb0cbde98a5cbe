package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	// Регистрирует webp-декодер в image.Decode. Кодировщика webp нет,
	// такие изображения пересохраняются в png.
	_ "golang.org/x/image/webp"
)

// Габариты, до которых ужимается аватар
const (
	avatarMaxWidth  = 400
	avatarMaxHeight = 400
)

// Processor нормализует загружаемые изображения: декодирует,
// ужимает до допустимых габаритов и пересохраняет.
type Processor struct {
	quality int // качество JPEG (1-100)
}

func NewProcessor(quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Processor{
		quality: quality,
	}
}

// NormalizeAvatar приводит картинку к размеру аватара.
// Возвращает новое содержимое и итоговый content type.
func (p *Processor) NormalizeAvatar(reader io.Reader) (*bytes.Buffer, string, error) {
	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	resized := p.fit(img, avatarMaxWidth, avatarMaxHeight)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, "", fmt.Errorf("failed to encode JPEG: %w", err)
		}
		return &buf, "image/jpeg", nil
	default:
		// png и webp уходят в png
		if err := png.Encode(&buf, resized); err != nil {
			return nil, "", fmt.Errorf("failed to encode PNG: %w", err)
		}
		return &buf, "image/png", nil
	}
}

// fit вписывает изображение в рамку с сохранением пропорций.
// Картинки меньше рамки не растягиваются.
func (p *Processor) fit(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth && height <= maxHeight {
		return img
	}

	ratio := float64(width) / float64(height)
	newWidth := maxWidth
	newHeight := maxHeight
	if float64(maxWidth)/float64(maxHeight) > ratio {
		newWidth = int(float64(maxHeight) * ratio)
	} else {
		newHeight = int(float64(maxWidth) / ratio)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
