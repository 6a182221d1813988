// Package blob stores the raw bytes of uploaded product images. Image
// metadata lives in MySQL; this package only knows keys such as
// "products/12/mug_1760000000000000000_a1b2c3d4.png".
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Store puts and deletes blobs by key.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
}

// ErrInvalidKey is returned for keys that are empty or try to escape the
// store root.
var ErrInvalidKey = errors.New("invalid blob key")

// ProductKey is the key of an image file belonging to a product.
func ProductKey(productID uint64, fileName string) string {
	return fmt.Sprintf("products/%d/%s", productID, fileName)
}

// PublicURL joins the public base URL and a key the way the API serves
// local uploads: {base}/uploads/{key}.
func PublicURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/uploads/" + key
}

func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	c := path.Clean("/" + key)[1:]
	if c == "" || c != key {
		return "", ErrInvalidKey
	}
	return c, nil
}
