package artifact

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for uploaded originals
	"strings"

	"github.com/pcbvision/aoi-go/internal/errors"
)

// jpegQuality matches the quality of the annotated stills served to
// review stations.
const jpegQuality = 90

// DecodeImage turns an inbound payload into an image. Payloads are
// either raw JPEG/PNG bytes or a data:image/...;base64 URI.
func DecodeImage(payload []byte) (image.Image, error) {
	if bytes.HasPrefix(payload, []byte("data:image")) {
		_, encoded, found := bytes.Cut(payload, []byte(","))
		if !found {
			return nil, errors.Newf("malformed image data URI").
				Component("artifact").
				Category(errors.CategoryImageDecode).
				Build()
		}
		decoded := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
		n, err := base64.StdEncoding.Decode(decoded, encoded)
		if err != nil {
			return nil, errors.New(err).
				Component("artifact").
				Category(errors.CategoryImageDecode).
				Context("stage", "base64").
				Build()
		}
		payload = decoded[:n]
	}

	img, format, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.New(err).
			Component("artifact").
			Category(errors.CategoryImageDecode).
			Context("payload_bytes", len(payload)).
			Build()
	}

	log.Debug("decoded inbound image", "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

// SaveImage encodes img as JPEG under the namespace and returns the
// file path.
func (s *Store) SaveImage(ns Namespace, name string, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", errors.New(err).
			Component("artifact").
			Category(errors.CategoryFileIO).
			Context("name", name).
			Build()
	}
	return s.Write(ns, name, buf.Bytes())
}

// EncodedExt normalizes a caller supplied extension for an upload,
// defaulting to jpg.
func EncodedExt(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filenameExt(filename)), ".")
	switch ext {
	case "jpg", "jpeg", "png", "mp4", "avi", "mov", "mkv":
		return ext
	default:
		return "jpg"
	}
}

func filenameExt(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx:]
	}
	return ""
}
