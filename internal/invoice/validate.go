package invoice

import (
	"bytes"
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

var imageSignatures = [][]byte{
	{0xFF, 0xD8, 0xFF},       // JPEG
	{0x89, 0x50, 0x4E, 0x47}, // PNG
	{0x47, 0x49, 0x46, 0x38}, // GIF
	{0x42, 0x4D},             // BMP
}

// IsImage reports whether an upload is plausibly an image. The declared MIME
// type and the filename are trusted first; the bytes are only sniffed when
// both say otherwise.
func IsImage(data []byte, mimeType, filename string) bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/") {
		return true
	}

	if imageExtensions[strings.ToLower(filepath.Ext(filename))] {
		return true
	}

	return SniffImage(data)
}

// SniffImage checks the first bytes of data against known image signatures
func SniffImage(data []byte) bool {
	header := data
	if len(header) > 12 {
		header = header[:12]
	}

	for _, signature := range imageSignatures {
		if bytes.HasPrefix(header, signature) {
			return true
		}
	}

	// WEBP is a RIFF container with the WEBP form type at offset 8
	return len(header) >= 12 &&
		bytes.Equal(header[0:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WEBP"))
}

// ContentTypeFor returns the declared content type, lowercased, or infers
// one from the filename extension when none was declared
func ContentTypeFor(declared, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
