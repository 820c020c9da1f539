// Package speech turns recorded conversations into text. A recording with no
// recognizable speech yields an empty transcript, not an error.
package speech

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/service"
)

// Config configures the speech-to-text collaborator.
type Config struct {
	Provider string
	Key      string
	Region   string
	// Endpoint overrides the provider base URL.
	Endpoint string
	Language string
	Model    string
	Timeout  time.Duration
}

// NewTranscriber creates the transcriber named by cfg.Provider. An empty
// provider selects Azure.
func NewTranscriber(cfg Config) (service.Transcriber, error) {
	switch strings.ToLower(cfg.Provider) {
	case "azure", "":
		return NewAzureTranscriber(cfg)
	case "openai":
		return NewWhisperTranscriber(cfg)
	default:
		return nil, fmt.Errorf("%w: speech provider %q", common.ErrUnsupportedProvider, cfg.Provider)
	}
}

// audioExtensions lists the file types picked up by a directory scan.
var audioExtensions = map[string]bool{
	".wav": true,
	".mp3": true,
	".ogg": true,
}

// IsAudioFile reports whether path has a supported audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}
