package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prudhvigodithi/shardmetrics/internal/logging"
	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

// debugArchiver writes a zstd-compressed JSON dump of a buffer's raw
// rows to disk when its window rolls over, for post-mortem inspection of a
// window whose views failed to publish. This is a diagnostics aid,
// never read back in-process, and is not a substitute for a long-term
// metrics database.
type debugArchiver struct {
	dir        string
	compressor *blobCompressor
	log        *logging.Logger
}

func newDebugArchiver(dir string, log *logging.Logger) (*debugArchiver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create debug archive dir: %w", err)
	}

	compressor, err := newBlobCompressor()
	if err != nil {
		return nil, err
	}

	return &debugArchiver{dir: dir, compressor: compressor, log: log}, nil
}

// Archive compresses and writes events for windowStart to
// <dir>/window-<windowStart>.json.zst. Failures are logged and
// swallowed: a failed debug dump must never affect the rollover path.
func (a *debugArchiver) Archive(windowStart int64, events []types.HalfEvent) {
	data, err := json.Marshal(events)
	if err != nil {
		a.log.Error("debug archive: failed to marshal W=%d: %v", windowStart, err)
		return
	}

	compressed := a.compressor.compress(data)
	path := filepath.Join(a.dir, fmt.Sprintf("window-%d.json.zst", windowStart))

	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		a.log.Error("debug archive: failed to write %s: %v", path, err)
	}
}

// Close releases the archiver's compressor resources.
func (a *debugArchiver) Close() {
	a.compressor.Close()
}
