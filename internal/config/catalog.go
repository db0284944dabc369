package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// CatalogFile is the on-disk shape of the source catalog.
//
//	mapping:
//	  jira: jira
//	  wiki: wiki
//	sources:
//	  - name: jira
//	    type: Jira
//	    available: true
//	    embeddings: true
type CatalogFile struct {
	Mapping *domain.CollectionMapping `yaml:"mapping" toml:"mapping"`
	Sources []domain.SourceInfo       `yaml:"sources" toml:"sources"`
}

// LoadCatalog resolves the source catalog and collection mapping.
// Without a SOURCES_FILE the built-in catalog of the configured index names
// is used. A file mapping, when present, replaces the environment mapping.
// Sources without a type are resolved through the mapping.
func (c *Config) LoadCatalog() ([]domain.SourceInfo, domain.CollectionMapping, error) {
	if c.SourcesFile == "" {
		return domain.DefaultCatalog(c.Mapping), c.Mapping, nil
	}

	file, err := ReadCatalogFile(c.SourcesFile)
	if err != nil {
		return nil, c.Mapping, err
	}

	mapping := c.Mapping
	if file.Mapping != nil {
		mapping = *file.Mapping
	}
	if len(file.Sources) == 0 {
		return domain.DefaultCatalog(mapping), mapping, nil
	}
	for i := range file.Sources {
		if file.Sources[i].Type == "" {
			file.Sources[i].Type = mapping.Resolve(file.Sources[i].Name)
		}
	}
	return file.Sources, mapping, nil
}

// ReadCatalogFile parses a YAML (.yaml, .yml) or TOML (.toml) catalog
func ReadCatalogFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file CatalogFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".toml":
		err = toml.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("catalog %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	if err := file.validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return &file, nil
}

func (f *CatalogFile) validate() error {
	seen := make(map[string]bool, len(f.Sources))
	var errs []error
	for i, s := range f.Sources {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("source %d: name is required", i))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("source %q listed twice", s.Name))
		}
		seen[s.Name] = true
		if s.Type != "" && !s.Type.IsValid() {
			errs = append(errs, fmt.Errorf("source %q: unknown type %q", s.Name, s.Type))
		}
	}
	return errors.Join(errs...)
}
