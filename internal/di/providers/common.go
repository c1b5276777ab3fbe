package providers

import (
	"fmt"
	"os"
)

// dataDirPerm is the mode of directories created for local state.
const dataDirPerm = 0o755

func ensureDir(path string) error {
	if err := os.MkdirAll(path, dataDirPerm); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}
