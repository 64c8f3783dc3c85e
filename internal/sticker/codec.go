package sticker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

var ErrMetadataInject = errors.New("sticker: metadata injection failed")

// MetadataCodec merges a pack metadata packet into encoded sticker bytes.
// The WebP encoding library cannot write the custom XMP namespace itself,
// so the concrete implementation below shells out to webpmux; alternative
// implementations may link a native library instead.
type MetadataCodec interface {
	Inject(ctx context.Context, webpData []byte, meta PackMetadata) ([]byte, error)
}

// WebpmuxCodec injects XMP via the webpmux binary from the libwebp tools.
// The working directory is shared across concurrent jobs; correctness relies
// on per-call unique filename suffixes, not locking.
type WebpmuxCodec struct {
	binary string
	dir    string
	log    zerolog.Logger
}

func NewWebpmuxCodec(binary, dir string, log zerolog.Logger) *WebpmuxCodec {
	if binary == "" {
		binary = "webpmux"
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &WebpmuxCodec{binary: binary, dir: dir, log: log}
}

// Inject writes the encoded sticker and the XMP sidecar to uniquely named
// temp files, runs `webpmux -set xmp <sidecar> <in> -o <out>`, and returns
// the merged bytes. All three files are removed on every exit path.
func (c *WebpmuxCodec) Inject(ctx context.Context, webpData []byte, meta PackMetadata) ([]byte, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataInject, err)
	}

	// The input and output names must keep the .webp extension; webpmux
	// fails on extensionless files.
	uid := newUID()
	inPath := filepath.Join(c.dir, fmt.Sprintf("in_%s.webp", uid))
	xmpPath := filepath.Join(c.dir, fmt.Sprintf("meta_%s.xmp", uid))
	outPath := filepath.Join(c.dir, fmt.Sprintf("out_%s.webp", uid))

	if err := os.WriteFile(inPath, webpData, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataInject, err)
	}
	defer os.Remove(inPath)

	if err := os.WriteFile(xmpPath, meta.XMP(), 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataInject, err)
	}
	defer os.Remove(xmpPath)
	defer os.Remove(outPath)

	cmd := exec.CommandContext(ctx, c.binary, "-set", "xmp", xmpPath, inPath, "-o", outPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrMetadataInject, c.binary, err, output)
	}

	merged, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataInject, err)
	}

	c.log.Debug().
		Str("pack_id", meta.PackID).
		Int("size", len(merged)).
		Msg("injected sticker metadata")

	return merged, nil
}

// newUID returns a collision-free suffix for temp filenames shared across
// concurrent jobs. ulid.Make draws from the package's locked crypto-rand
// entropy, so simultaneous calls never repeat even on the same clock tick.
func newUID() string {
	return ulid.Make().String()
}
