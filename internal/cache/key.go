package cache

import (
	"fmt"

	"github.com/pagelens/pagelens/internal/analysis"
)

// schemaVersion is folded into every key so that changes to the result
// shape invalidate older entries instead of deserializing into them.
const schemaVersion = "v2"

// Key derives the cache key for a page. The key depends only on the page
// content (URL, title, body digest) and the schema version, so identical
// input always maps to the same entry regardless of when it is analyzed.
func Key(hasher analysis.Hasher, page analysis.Page) (string, error) {
	contentHash, err := hasher.Hash([]byte(page.Markdown))
	if err != nil {
		return "", fmt.Errorf("hash page content: %w", err)
	}
	payload := fmt.Sprintf("%s|%s|%s|%s", page.URL, page.Title, contentHash, schemaVersion)
	key, err := hasher.Hash([]byte(payload))
	if err != nil {
		return "", fmt.Errorf("hash cache key: %w", err)
	}
	return key, nil
}
