package assembler

import (
	"path/filepath"
	"strings"

	"github.com/vk/ocrbridge/internal/fsutil"
	"github.com/vk/ocrbridge/internal/model"
)

// resolveItems returns root/id/file for every non-blank id and file, in item
// order then file order. A path leaving root is rejected.
func resolveItems(root string, items []model.Item) ([]string, error) {
	var paths []string
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		for _, file := range item.Files {
			file = strings.TrimSpace(file)
			if file == "" {
				continue
			}
			path := filepath.Join(root, id, file)
			if !fsutil.Within(root, path) || path == filepath.Clean(root) {
				return nil, invalid("item %q file %q is outside %s", id, file, root)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// resolveBatch turns batch arguments into engine tokens: the trimmed flag
// followed by every resolved path. A batch argument with a blank flag or no
// resolved path contributes nothing, not even its flag.
func resolveBatch(root string, batches []model.BatchArgument) ([]string, error) {
	var tokens []string
	for _, batch := range batches {
		flag := strings.TrimSpace(batch.Argument)
		if flag == "" || len(batch.Items) == 0 {
			continue
		}
		paths, err := resolveItems(root, batch.Items)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			continue
		}
		tokens = append(tokens, flag)
		tokens = append(tokens, paths...)
	}
	return tokens, nil
}
