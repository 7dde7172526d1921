// Package download fetches card images referenced by spreadsheet rows into
// the local static directory the results page serves from.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	pkgerrors "idmatch/pkg/errors"
)

// Some image hosts reject obvious non-browser clients.
const userAgent = "Mozilla/5.0"

// maxImageBytes caps how much of a response body is written to disk. Card
// scans are single photos; anything bigger is a broken link or abuse.
const maxImageBytes = 20 << 20

// Downloader fetches images over HTTP and saves them under Dir.
type Downloader struct {
	client *http.Client
	dir    string
}

// New creates a Downloader writing into dir. The directory is created on
// first use rather than here so construction cannot fail.
func New(dir string, timeout time.Duration) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: timeout},
		dir:    dir,
	}
}

// Fetch downloads the image at rawURL and stores it as row_<position><ext>.
// It returns the bare filename for embedding into the results page.
func (d *Downloader) Fetch(ctx context.Context, rawURL string, position int) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.EqualFold(rawURL, "null") {
		return "", pkgerrors.New(pkgerrors.CodeBadRequest, "empty image URL")
	}
	if !govalidator.IsURL(rawURL) {
		return "", pkgerrors.Newf(pkgerrors.CodeBadRequest, "invalid image URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", pkgerrors.Wrap(err, pkgerrors.CodeBadRequest, "build image request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(err, pkgerrors.CodeUnavailable, "fetch image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.Newf(pkgerrors.CodeUnavailable,
			"fetch image: unexpected status %d", resp.StatusCode)
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		return "", pkgerrors.Newf(pkgerrors.CodeBadRequest,
			"URL is not an image (content-type %q)", contentType)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", pkgerrors.Wrap(err, pkgerrors.CodeInternal, "create download dir")
	}

	filename := fmt.Sprintf("row_%d%s", position, extensionFor(rawURL))
	target := filepath.Join(d.dir, filename)

	f, err := os.Create(target)
	if err != nil {
		return "", pkgerrors.Wrap(err, pkgerrors.CodeInternal, "create image file")
	}
	_, copyErr := io.Copy(f, io.LimitReader(resp.Body, maxImageBytes))
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(target)
		return "", pkgerrors.Wrap(copyErr, pkgerrors.CodeUnavailable, "save image")
	}
	if closeErr != nil {
		os.Remove(target)
		return "", pkgerrors.Wrap(closeErr, pkgerrors.CodeInternal, "save image")
	}

	return filename, nil
}

// extensionFor picks the stored file extension from the URL path, defaulting
// to .jpg when the URL gives nothing usable.
func extensionFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".jpg", ".jpeg", ".png":
		return ext
	default:
		return ".jpg"
	}
}
