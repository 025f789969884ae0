package htmldoc

import (
	"context"
	"fmt"
	"net/url"
	"os"
)

// Loader fetches the document of a frame given its resolved URL.
type Loader func(ctx context.Context, ref string) ([]byte, error)

// FileLoader reads file:// frame sources from disk.
func FileLoader() Loader {
	return func(_ context.Context, ref string) ([]byte, error) {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, err
		}
		if u.Scheme != "file" {
			return nil, fmt.Errorf("htmldoc: unsupported scheme %q", u.Scheme)
		}
		return os.ReadFile(u.Path)
	}
}

// MapLoader serves frame sources from memory, keyed by resolved URL.
func MapLoader(pages map[string]string) Loader {
	return func(_ context.Context, ref string) ([]byte, error) {
		page, ok := pages[ref]
		if !ok {
			return nil, fmt.Errorf("htmldoc: no page for %s", ref)
		}
		return []byte(page), nil
	}
}
