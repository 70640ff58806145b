package dataset

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ftpTimeout bounds the FTP control connection dial.
const ftpTimeout = 30 * time.Second

// Fetch resolves a dataset source to a local file path. Plain paths are
// returned as-is with a no-op cleanup. ftp:// sources are downloaded to a
// temp file; cleanup removes it. Hydrology agencies still publish gauge
// exports over anonymous FTP.
func Fetch(ctx context.Context, source string) (path string, cleanup func(), err error) {
	if !strings.HasPrefix(source, "ftp://") {
		return source, func() {}, nil
	}

	host, remotePath, err := parseFTPURL(source)
	if err != nil {
		return "", nil, err
	}

	zap.L().Info("dataset: downloading over ftp",
		zap.String("host", host),
		zap.String("path", remotePath),
	)

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(ftpTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return "", nil, eris.Wrap(err, "dataset: ftp dial")
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return "", nil, eris.Wrap(err, "dataset: ftp login")
	}

	resp, err := conn.Retr(remotePath)
	if err != nil {
		return "", nil, eris.Wrap(err, "dataset: ftp retrieve")
	}
	defer resp.Close()

	tmp, err := os.CreateTemp("", "floodwatch-*"+filepath.Ext(remotePath))
	if err != nil {
		return "", nil, eris.Wrap(err, "dataset: create temp file")
	}
	if _, err := io.Copy(tmp, resp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, eris.Wrap(err, "dataset: download to temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, eris.Wrap(err, "dataset: close temp file")
	}

	name := tmp.Name()
	return name, func() { _ = os.Remove(name) }, nil
}

// parseFTPURL extracts host (with default port 21) and path from an FTP URL.
func parseFTPURL(rawURL string) (host, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "dataset: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("dataset: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	if u.Path == "" {
		return "", "", eris.New("dataset: empty path in ftp url")
	}
	return host, u.Path, nil
}
