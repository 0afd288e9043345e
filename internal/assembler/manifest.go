package assembler

import (
	"fmt"
	"os"
	"strings"

	"github.com/vk/ocrbridge/internal/model"
)

// buildManifest renders the dataset as one data-root path per line. An empty
// result is an invalid argument.
func buildManifest(dataRoot string, dataset model.Dataset) ([]byte, error) {
	paths, err := resolveItems(dataRoot, dataset.Items)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, invalid("dataset can not be empty")
	}

	var b strings.Builder
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

// writeManifest replaces the manifest file at path.
func writeManifest(path string, content []byte) error {
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing dataset manifest %s: %w", path, err)
	}
	return nil
}
