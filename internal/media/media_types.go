package media

import (
	_ "embed"
	"fmt"
	"net/url"
	"path"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed media_types.toml
var mediaTypesTOML []byte

type TypeConfig struct {
	Extensions  []string `toml:"extensions"`
	URLPatterns []string `toml:"url_patterns"`
}

type PlatformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

// OpenerArgs are extra arguments passed to an opener before the URL.
type OpenerArgs struct {
	Page  []string `toml:"page"`
	Image []string `toml:"image"`
}

type TypesConfig struct {
	Image     TypeConfig                `toml:"image"`
	Platforms map[string]PlatformConfig `toml:"platforms"`
	Openers   map[string]OpenerArgs     `toml:"openers"`
}

type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	return parseTypes(mediaTypesTOML)
}

func parseTypes(data []byte) (*TypeDetector, error) {
	var cfg TypesConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing media_types.toml: %w", err)
	}
	return &TypeDetector{config: &cfg}, nil
}

// DetectType classifies a link by file extension first, then by known image
// hosts.
func (d *TypeDetector) DetectType(rawURL string) Type {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return TypePage
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if ext != "" && contains(d.config.Image.Extensions, ext) {
		return TypeImage
	}

	lower := strings.ToLower(u.Host + u.Path)
	for _, pattern := range d.config.Image.URLPatterns {
		if strings.Contains(lower, pattern) {
			return TypeImage
		}
	}
	return TypePage
}

func (d *TypeDetector) GetDefaultOpener() string {
	if p, ok := d.config.Platforms[runtime.GOOS]; ok && p.DefaultOpener != "" {
		return p.DefaultOpener
	}
	if p, ok := d.config.Platforms["fallback"]; ok && p.DefaultOpener != "" {
		return p.DefaultOpener
	}
	return "open"
}

// Args returns the extra arguments for opener when opening a link of type t.
func (d *TypeDetector) Args(opener string, t Type) []string {
	a, ok := d.config.Openers[opener]
	if !ok {
		return nil
	}
	if t == TypeImage {
		return a.Image
	}
	return a.Page
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
