package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/mrosello/videograb/server/common"
)

const downloadTemplate = `download:
{
	"eta":%(progress.eta)s,
	"percentage":"%(progress._percent_str)s",
	"speed":%(progress.speed)s
}`

// Tool wraps the external downloader binary. It is invoked in three
// modes: metadata query, fetch-to-path and fetch-to-stream.
type Tool struct {
	bin string
}

func New(bin string) *Tool {
	return &Tool{bin: bin}
}

// Metadata runs the downloader in dump-json mode and decodes its output.
func (t *Tool) Metadata(ctx context.Context, url string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, t.bin, url, "-J", "--no-warnings")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrUpstreamFetch, err)
	}

	var bufferedStderr bytes.Buffer

	go func() {
		io.Copy(&bufferedStderr, stderr)
	}()

	slog.Info("retrieving metadata", slog.String("url", url))

	var info VideoInfo
	decodeErr := json.NewDecoder(stdout).Decode(&info)

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrUpstreamFetch, strings.TrimSpace(bufferedStderr.String()))
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrUpstreamFetch, decodeErr)
	}

	return &info, nil
}

// Download fetches url in the selected format to the output path,
// reporting percent ticks parsed from the progress template lines.
func (t *Tool) Download(ctx context.Context, url, format, output string, onProgress func(percent int)) error {
	templateReplacer := strings.NewReplacer("\n", "", "\t", "", " ", "")

	params := []string{
		url,
		"--newline",
		"--no-colors",
		"--no-playlist",
		"--progress-template",
		templateReplacer.Replace(downloadTemplate),
		"-f", format,
		"-o", output,
	}

	slog.Info("requesting download", slog.String("url", url), slog.Any("params", params))

	cmd := exec.CommandContext(ctx, t.bin, params...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s", common.ErrUpstreamFetch, err)
	}

	go relayProcessErrors(stderr, url)

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if percent, ok := parseProgress(scanner.Bytes()); ok && onProgress != nil {
			onProgress(percent)
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%w: %s", common.ErrUpstreamFetch, err)
	}

	return nil
}

// Stream fetches url in the selected format and pipes the media bytes to w.
func (t *Tool) Stream(ctx context.Context, url, format string, w io.Writer) error {
	slog.Info("requesting streamed download", slog.String("url", url), slog.String("format", format))

	cmd := exec.CommandContext(ctx, t.bin, url, "--no-playlist", "-f", format, "-o", "-")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = w

	var bufferedStderr bytes.Buffer
	cmd.Stderr = &bufferedStderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", common.ErrUpstreamFetch, strings.TrimSpace(bufferedStderr.String()))
	}

	return nil
}

type progressTemplate struct {
	Eta        float64 `json:"eta"`
	Percentage string  `json:"percentage"`
	Speed      float64 `json:"speed"`
}

func parseProgress(entry []byte) (int, bool) {
	var progress progressTemplate
	if err := json.Unmarshal(entry, &progress); err != nil {
		return 0, false
	}

	raw := strings.TrimSuffix(strings.TrimSpace(progress.Percentage), "%")
	percent, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	return int(percent), true
}

func relayProcessErrors(r io.Reader, url string) {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		slog.Error("downloader process error",
			slog.String("url", url),
			slog.String("err", scanner.Text()),
		)
	}
}
