package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     FileType
	}{
		{"report.pdf", FileTypePDF},
		{"Report.PDF", FileTypePDF},
		{"essay.docx", FileTypeDocx},
		{"essay.doc", FileTypeDocx},
		{"photo.png", FileTypeImage},
		{"photo.JPG", FileTypeImage},
		{"scan.jpeg", FileTypeImage},
		{"clip.mp4", FileTypeVideo},
		{"clip.mov", FileTypeVideo},
		// Unknown extensions fall back to pdf
		{"archive.zip", FileTypePDF},
		{"noextension", FileTypePDF},
		{"trailing.", FileTypePDF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyFilename(tt.filename), "filename %q", tt.filename)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		sizeBytes int64
		want      string
	}{
		{0, "0 B"},
		{500, "500 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{2048, "2.0 KB"},
		{1047552, "1023.0 KB"},
		{1048576, "1.0 MB"},
		{5242880, "5.0 MB"},
		{157286400, "150.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.sizeBytes), "size %d", tt.sizeBytes)
	}
}
