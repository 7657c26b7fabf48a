package ytdlp

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrosello/videograb/server/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTool fakes the downloader binary with a shell script.
func stubTool(t *testing.T, script string) *Tool {
	t.Helper()

	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))

	return New(path)
}

func TestMetadata(t *testing.T) {
	tool := stubTool(t, `echo '{"title":"Some Clip","thumbnail":"https://i/t.jpg","formats":[{"format_id":"18","ext":"mp4","vcodec":"avc1","acodec":"mp4a"}]}'`)

	info, err := tool.Metadata(context.Background(), "https://example.com/v")
	require.NoError(t, err)
	assert.Equal(t, "Some Clip", info.Title)
	assert.Equal(t, "https://i/t.jpg", info.Thumbnail)
	require.Len(t, info.Formats, 1)
	assert.Equal(t, "18", info.Formats[0].FormatId)
}

func TestMetadataProcessFailure(t *testing.T) {
	tool := stubTool(t, `echo 'ERROR: unsupported url' >&2; exit 1`)

	_, err := tool.Metadata(context.Background(), "https://example.com/v")
	require.ErrorIs(t, err, common.ErrUpstreamFetch)
	assert.Contains(t, err.Error(), "unsupported url")
}

func TestMetadataMalformedOutput(t *testing.T) {
	tool := stubTool(t, `echo 'this is not json'`)

	_, err := tool.Metadata(context.Background(), "https://example.com/v")
	assert.ErrorIs(t, err, common.ErrUpstreamFetch)
}

func TestDownloadReportsProgress(t *testing.T) {
	tool := stubTool(t, `echo '{"eta":12.0,"percentage":"  3.2%","speed":1024.5}'
echo 'some unrelated line'
echo '{"eta":0.0,"percentage":"100.0%","speed":2048.0}'`)

	var ticks []int
	err := tool.Download(context.Background(), "https://example.com/v", "18", "/tmp/out.mp4", func(percent int) {
		ticks = append(ticks, percent)
	})

	require.NoError(t, err)
	assert.Equal(t, []int{3, 100}, ticks)
}

func TestDownloadFailure(t *testing.T) {
	tool := stubTool(t, `exit 2`)

	err := tool.Download(context.Background(), "https://example.com/v", "18", "/tmp/out.mp4", nil)
	assert.ErrorIs(t, err, common.ErrUpstreamFetch)
}

func TestStream(t *testing.T) {
	tool := stubTool(t, `printf 'MEDIA-BYTES'`)

	var buf bytes.Buffer
	err := tool.Stream(context.Background(), "https://example.com/v", "18", &buf)

	require.NoError(t, err)
	assert.Equal(t, "MEDIA-BYTES", buf.String())
}

func TestStreamFailure(t *testing.T) {
	tool := stubTool(t, `echo 'ERROR: no formats' >&2; exit 1`)

	var buf bytes.Buffer
	err := tool.Stream(context.Background(), "https://example.com/v", "18", &buf)

	require.ErrorIs(t, err, common.ErrUpstreamFetch)
	assert.Contains(t, err.Error(), "no formats")
}

func TestParseProgress(t *testing.T) {
	percent, ok := parseProgress([]byte(`{"eta":3.0,"percentage":" 42.7%","speed":99.0}`))
	require.True(t, ok)
	assert.Equal(t, 42, percent)

	percent, ok = parseProgress([]byte(`{"eta":null,"percentage":"100.0%","speed":null}`))
	require.True(t, ok)
	assert.Equal(t, 100, percent)

	_, ok = parseProgress([]byte(`[download] 12% of ~4MiB`))
	assert.False(t, ok)

	_, ok = parseProgress([]byte(`{"percentage":"unknown"}`))
	assert.False(t, ok)
}
