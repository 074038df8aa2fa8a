// File: internal/infra/adapters/media/downloader.go
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horan-assistant-bot/internal/domain/ports/adapter"
)

var _ adapter.MediaDownloader = (*HTTPDownloader)(nil)

const (
	titleHeader       = "X-Video-Title"
	unknownTrack      = "Unknown Track"
	unknownVideo      = "Unknown Video"
	untitledFilename  = "undefined"
	maxFilenameLength = 120
)

var unsafeFilenameRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

type Endpoints struct {
	YouTube string // returns mp3 audio
	TikTok  string // returns mp4 video
}

// HTTPDownloader asks an extraction backend for the media behind a link and
// streams the response body into dir.
type HTTPDownloader struct {
	endpoints Endpoints
	dir       string
	client    *http.Client
	log       zerolog.Logger
	now       func() time.Time
}

func NewHTTPDownloader(endpoints Endpoints, dir string, timeout time.Duration, logger *zerolog.Logger) (*HTTPDownloader, error) {
	if dir == "" {
		return nil, errors.New("media: empty downloads dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create dir: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HTTPDownloader{
		endpoints: endpoints,
		dir:       dir,
		client:    &http.Client{Timeout: timeout},
		log:       logger.With().Str("component", "media-downloader").Logger(),
		now:       time.Now,
	}, nil
}

func (d *HTTPDownloader) Download(ctx context.Context, kind adapter.MediaKind, link string) (*adapter.MediaFile, error) {
	var endpoint, ext, fallbackTitle string
	switch kind {
	case adapter.MediaAudio:
		endpoint, ext, fallbackTitle = d.endpoints.YouTube, ".mp3", unknownTrack
	case adapter.MediaVideo:
		endpoint, ext, fallbackTitle = d.endpoints.TikTok, ".mp4", unknownVideo
	default:
		return nil, fmt.Errorf("media: unknown kind %q", kind)
	}
	if endpoint == "" {
		return nil, fmt.Errorf("media: no endpoint configured for %s", kind)
	}

	body, err := json.Marshal(map[string]string{"url": link})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("media: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	title := decodeTitle(resp.Header.Get(titleHeader), fallbackTitle)
	path := filepath.Join(d.dir, FileName(title, d.now(), ext))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("media: create file: %w", err)
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("media: write file: %w", errors.Join(copyErr, closeErr))
	}
	if n == 0 {
		_ = os.Remove(path)
		return nil, errors.New("media: empty body")
	}
	d.log.Debug().Str("kind", string(kind)).Str("path", path).Int64("bytes", n).Msg("downloaded")

	out := &adapter.MediaFile{Kind: kind, Path: path, Title: title}
	if kind == adapter.MediaAudio {
		out.Thumbnail = YouTubeThumbnail(link)
	}
	return out, nil
}

// decodeTitle reads the base64 encoded title header. A missing header yields
// fallback; a header that is not valid base64 is used as is.
func decodeTitle(h, fallback string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return fallback
	}
	b, err := base64.StdEncoding.DecodeString(h)
	if err != nil {
		return h
	}
	if t := strings.TrimSpace(string(b)); t != "" {
		return t
	}
	return fallback
}

// FileName builds "<sanitized title>_<unix ms><ext>", using "undefined" when
// nothing survives sanitizing.
func FileName(title string, at time.Time, ext string) string {
	name := strings.TrimSpace(unsafeFilenameRe.ReplaceAllString(title, ""))
	if r := []rune(name); len(r) > maxFilenameLength {
		name = strings.TrimSpace(string(r[:maxFilenameLength]))
	}
	if name == "" {
		name = untitledFilename
	}
	return name + "_" + strconv.FormatInt(at.UnixMilli(), 10) + ext
}
