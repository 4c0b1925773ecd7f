package serve

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveSocketPath returns the daemon socket path.
// Resolution order: $LOCALAI_SOCKET > $XDG_RUNTIME_DIR/localai.sock > /tmp/localai-<uid>.sock
func ResolveSocketPath() string {
	if path := os.Getenv("LOCALAI_SOCKET"); path != "" {
		return path
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "localai.sock")
	}
	return fmt.Sprintf("/tmp/localai-%d.sock", os.Getuid())
}
