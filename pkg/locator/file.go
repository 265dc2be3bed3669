package locator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// Entry is one locator in a YAML locator set. It unmarshals from either a
// plain scalar (a CSS selector) or a struct with explicit strategy:
//
//	rows: "tr.list-item"
//	docs_link:
//	  strategy: partial link text
//	  selector: Documentation
type Entry struct {
	Strategy core.Strategy `yaml:"strategy"`
	Selector string        `yaml:"selector"`
}

// UnmarshalYAML allows Entry to be unmarshaled from string or struct.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Strategy = core.StrategyCSS
		e.Selector = node.Value
		return nil
	}

	var raw struct {
		Strategy core.Strategy `yaml:"strategy"`
		Selector string        `yaml:"selector"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	e.Strategy = raw.Strategy
	if e.Strategy == "" {
		e.Strategy = core.StrategyCSS
	}
	e.Selector = raw.Selector
	return nil
}

// Set is a named collection of locators as loaded from one YAML file.
type Set map[string]Entry

// LoadFile loads a locator set from a YAML file.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided locator file
	if err != nil {
		return nil, err
	}

	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse locator file %s: %w", path, err)
	}

	return set, nil
}

// LoadDir loads and merges every .yaml/.yml locator file in a directory,
// in lexical order so overrides are deterministic.
func LoadDir(dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	merged := make(Set)
	for _, file := range files {
		set, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		for name, entry := range set {
			merged[name] = entry
		}
	}

	return merged, nil
}
