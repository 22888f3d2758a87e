// Package netx contains small network helpers shared by the client:
// deriving the websocket endpoint from the configured HTTP base URL and
// downloading a finished artifact to disk.
package netx

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
)

// WebsocketURL converts an http(s) base URL into the ws(s) URL for the given
// path. The path is resolved against the base, so a base with a prefix keeps it.
func WebsocketURL(base string, p string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = path.Join(u.Path, p)
	return u.String(), nil
}

// ResolveURL resolves ref (absolute or server-relative, e.g. "/download/x.zip")
// against the configured base URL.
func ResolveURL(base string, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

// DownloadArtifact fetches url and writes the body to a file named after the
// last path segment inside dir. Returns the local path.
func DownloadArtifact(client *http.Client, rawURL string, dir string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." || !strings.HasSuffix(name, ".zip") {
		name = "project.zip"
	}

	localPath := path.Join(dir, name)
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("error creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("error writing file: %w", err)
	}
	return localPath, nil
}
