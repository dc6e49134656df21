// Package storage uploads marketplace images to S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

// ObjectStore provides access to object storage.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// PublicURL is the anonymous download URL for key.
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

const productPrefix = "productos"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ProductImageKey builds productos/<unixmillis>_<filename> with the
// filename reduced to a safe character set.
func ProductImageKey(now time.Time, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "image"
	}
	return fmt.Sprintf("%s/%d_%s", productPrefix, now.UnixMilli(), name)
}

// publicURL joins base, bucket and key. base is used as is when it already
// names the bucket.
func publicURL(base, bucket, key string) string {
	base = strings.TrimRight(base, "/")
	if bucket != "" && !strings.HasSuffix(base, "/"+bucket) {
		base += "/" + bucket
	}
	return base + "/" + strings.TrimLeft(key, "/")
}
