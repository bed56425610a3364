package runconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/surface"
)

// document is the YAML file layout: run settings at top level plus an
// optional selectors section
type document struct {
	contracts.RunConfig `yaml:",inline"`
	Selectors           surface.Selectors `yaml:"selectors,omitempty"`
}

// FileProvider keeps the configuration in a YAML file
type FileProvider struct {
	path string
	mu   sync.Mutex
}

// NewFileProvider creates a provider for path. The file need not exist yet.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// load reads the document; a missing file is an empty document
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func (p *FileProvider) load() (document, error) {
	var doc document

	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", p.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", p.path, err)
	}
	return doc, nil
}

// Get implements Provider
func (p *FileProvider) Get(ctx context.Context) (contracts.RunConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.load()
	if err != nil {
		return contracts.RunConfig{}, err
	}
	return doc.RunConfig.Normalized(), nil
}

// Set implements Provider. The selectors section is preserved.
func (p *FileProvider) Set(ctx context.Context, cfg contracts.RunConfig) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.load()
	if err != nil {
		return err
	}
	doc.RunConfig = cfg

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal run config: %w", err)
	}

	if dir := filepath.Dir(p.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, p.path)
}

// Selectors implements SelectorSource: defaults overlaid with the file's section
func (p *FileProvider) Selectors(ctx context.Context) (surface.Selectors, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.load()
	if err != nil {
		return surface.Selectors{}, err
	}
	return surface.DefaultSelectors().Merge(doc.Selectors), nil
}
