// Package downloader fetches model files, such as GGUF weights for the llama
// backend, into a local models directory.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// TokenEnv holds an optional Hugging Face access token.
const TokenEnv = "HUGGINGFACE_TOKEN"

// Downloader writes files into Dir.
type Downloader struct {
	Dir    string
	Client *http.Client
	// Token is sent as a bearer token when set.
	Token string
}

// New returns a downloader for dir using the token from the environment.
func New(dir string) *Downloader {
	return &Downloader{
		Dir:    dir,
		Client: http.DefaultClient,
		Token:  os.Getenv(TokenEnv),
	}
}

// Download fetches rawURL into Dir/name and returns the file path. An empty
// name uses the last element of the URL path. An existing file is kept and
// not downloaded again.
func (d *Downloader) Download(ctx context.Context, rawURL, name string) (string, bool, error) {
	if name == "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", false, fmt.Errorf("invalid url %q: %w", rawURL, err)
		}
		name = path.Base(u.Path)
		if name == "." || name == "/" {
			return "", false, fmt.Errorf("cannot derive a file name from %q", rawURL)
		}
	}
	if filepath.Base(name) != name || name == ".." {
		return "", false, fmt.Errorf("invalid file name %q: must not contain a directory", name)
	}

	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", false, err
	}
	outPath := filepath.Join(d.Dir, name)
	if _, err := os.Stat(outPath); err == nil {
		return outPath, false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, err
	}
	if d.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.Token)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("download failed: %s", resp.Status)
	}

	// Write to a temporary name so an interrupted download is never
	// mistaken for a complete file.
	tmp, err := os.CreateTemp(d.Dir, name+".*.part")
	if err != nil {
		return "", false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", false, err
	}
	if err := tmp.Close(); err != nil {
		return "", false, err
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return "", false, err
	}
	return outPath, true, nil
}
