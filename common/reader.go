package common

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/whosonfirst/go-reader/v2"
)

var readers = make(map[string]reader.Reader)
var readers_mu = new(sync.RWMutex)

// NewReader returns a whosonfirst/go-reader.Reader instance. Instances
// are cached in memory for repeat lookups.
func NewReader(ctx context.Context, uri string) (reader.Reader, error) {

	readers_mu.Lock()
	defer readers_mu.Unlock()

	r, ok := readers[uri]

	if ok {
		return r, nil
	}

	r, err := reader.NewReader(ctx, uri)

	if err != nil {
		return nil, fmt.Errorf("Failed to create reader for '%s', %w", uri, err)
	}

	readers[uri] = r
	return r, nil
}

// NewDirectoryReader returns a (cached) reader for files in the local directory root.
func NewDirectoryReader(ctx context.Context, root string) (reader.Reader, error) {

	abs_root, err := filepath.Abs(root)

	if err != nil {
		return nil, fmt.Errorf("Failed to derive absolute path for %s, %w", root, err)
	}

	u := url.URL{
		Scheme: "fs",
		Path:   filepath.ToSlash(abs_root),
	}

	return NewReader(ctx, u.String())
}
