package protect

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

// Guard decides whether an artifact path may be deployed.
// Three checks apply: glob patterns, keywords in the path, and extensions.
type Guard struct {
	patterns  []string
	keywords  []string
	fileTypes []string
	mu        sync.RWMutex
}

// guardConfig is the .devflow/protected.yaml file structure.
type guardConfig struct {
	Protected struct {
		Patterns  []string `yaml:"patterns"`
		Keywords  []string `yaml:"keywords"`
		FileTypes []string `yaml:"file_types"`
	} `yaml:"protected"`
}

// New creates a guard with the default pattern set.
func New() *Guard {
	return &Guard{
		patterns:  append([]string{}, DefaultPatterns...),
		keywords:  append([]string{}, DefaultKeywords...),
		fileTypes: append([]string{}, DefaultFileTypes...),
	}
}

// Blocked checks if an artifact path matches any protected criteria.
func (g *Guard) Blocked(path string) bool {
	blocked, _ := g.BlockedWithReason(path)
	return blocked
}

// BlockedWithReason checks an artifact path and returns the matching rule.
func (g *Guard) BlockedWithReason(path string) (bool, string) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	normalized := filepath.ToSlash(path)
	lower := strings.ToLower(normalized)

	for _, pattern := range g.patterns {
		if matchGlobPattern(normalized, pattern) {
			return true, "artifact matches protected pattern: " + pattern
		}
	}

	for _, keyword := range g.keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true, "artifact path contains protected keyword: " + keyword
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, blockedExt := range g.fileTypes {
		if ext == strings.ToLower(blockedExt) {
			return true, "artifact file type is protected: " + blockedExt
		}
	}

	return false, ""
}

// AddPattern adds a glob pattern to the protected set.
func (g *Guard) AddPattern(pattern string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.patterns = append(g.patterns, pattern)
}

// AddKeyword adds a keyword to the protected set.
func (g *Guard) AddKeyword(keyword string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keywords = append(g.keywords, keyword)
}

// AddFileType adds a file extension to the protected set.
func (g *Guard) AddFileType(ext string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fileTypes = append(g.fileTypes, ext)
}

// LoadConfig merges protected rules from a protected.yaml file.
func (g *Guard) LoadConfig(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg guardConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.patterns = append(g.patterns, cfg.Protected.Patterns...)
	g.keywords = append(g.keywords, cfg.Protected.Keywords...)
	g.fileTypes = append(g.fileTypes, cfg.Protected.FileTypes...)

	return nil
}
