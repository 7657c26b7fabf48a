package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "My_Video__2024", SanitizeFilename("My Video! 2024"))
	assert.Equal(t, "video", SanitizeFilename(""))
	assert.Equal(t, "clip.mp4", SanitizeFilename("clip.mp4"))
	assert.Equal(t, "a_b_c", SanitizeFilename("a/b\\c"))
	assert.Equal(t, "x_y", SanitizeFilename("x\ty"))
}

func TestFileRef(t *testing.T) {
	assert.Equal(t, "/download-file/abc123", FileRef("abc123"))
}
