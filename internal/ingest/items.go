package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Item is one candidate's unit of work. Items are never persisted; only
// their aggregate effect on the session counters and summary is durable.
type Item struct {
	// Key is the candidate folder name and the identifier used for durable
	// records and error entries.
	Key string
	// DisplayName is a human-oriented rendering of the key used in logs and
	// the advisory current_item column.
	DisplayName string
	// Dir is the absolute path of the candidate folder.
	Dir string
}

// DiscoverItems lists the candidate subfolders of root in name order. Files
// directly under root are ignored.
func DiscoverItems(root string) ([]Item, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("discover candidates: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discover candidates: %s is not a directory", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("discover candidates: %w", err)
	}

	var items []Item
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		items = append(items, Item{
			Key:         name,
			DisplayName: displayName(name),
			Dir:         filepath.Join(root, name),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

var titleCaser = cases.Title(language.Und)

// displayName turns a folder name like "jane_doe" into "Jane Doe".
func displayName(key string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(key)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return key
	}
	return titleCaser.String(cleaned)
}
