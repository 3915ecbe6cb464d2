package repository

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ============================================================================
// Upload Classification
// ============================================================================

// extensionTypes is the fixed extension→type table used at upload time.
var extensionTypes = map[string]FileType{
	".pdf":  FileTypePDF,
	".doc":  FileTypeDocx,
	".docx": FileTypeDocx,
	".png":  FileTypeImage,
	".jpg":  FileTypeImage,
	".jpeg": FileTypeImage,
	".gif":  FileTypeImage,
	".webp": FileTypeImage,
	".mp4":  FileTypeVideo,
	".mov":  FileTypeVideo,
	".avi":  FileTypeVideo,
	".mkv":  FileTypeVideo,
	".webm": FileTypeVideo,
}

// ClassifyFilename derives a FileType from a filename's extension.
//
// Unmatched extensions fall back to pdf. This mirrors the historical
// behavior of the system; it silently misclassifies unknown formats, but
// changing it would change what existing clients display.
func ClassifyFilename(filename string) FileType {
	ext := strings.ToLower(filepath.Ext(filename))
	if fileType, ok := extensionTypes[ext]; ok {
		return fileType
	}
	return FileTypePDF
}

// FormatSize renders a byte count as the human string stored on records:
// bytes below 1 KiB, then one-decimal KB, then one-decimal MB.
func FormatSize(sizeBytes int64) string {
	switch {
	case sizeBytes < 1024:
		return fmt.Sprintf("%d B", sizeBytes)
	case sizeBytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(sizeBytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(sizeBytes)/(1024*1024))
	}
}
