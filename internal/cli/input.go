package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Veraticus/lumos/internal/model"
	"github.com/google/uuid"
)

// textExtensions are the files picked up when a directory is given.
var textExtensions = map[string]bool{".txt": true, ".md": true}

// LoadConversations reads typed conversations from paths. A directory
// contributes its text files in name order; "-" reads stdin.
func LoadConversations(paths []string, stdin io.Reader) ([]model.Conversation, error) {
	var convs []model.Conversation

	for _, path := range paths {
		if path == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			convs = append(convs, typedConversation("stdin", string(data)))
			continue
		}

		files, err := expandInput(path, func(name string) bool {
			return textExtensions[strings.ToLower(filepath.Ext(name))]
		})
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", file, err)
			}
			convs = append(convs, typedConversation(filepath.Base(file), string(data)))
		}
	}

	return convs, nil
}

// FindFiles lists the files in dir accepted by match, sorted by name.
func FindFiles(dir string, match func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func expandInput(path string, match func(name string) bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return FindFiles(path, match)
	}
	return []string{path}, nil
}

func typedConversation(source, text string) model.Conversation {
	return model.Conversation{
		ID:     uuid.NewString(),
		Source: source,
		Origin: model.OriginTyped,
		Text:   strings.TrimSpace(text),
	}
}
