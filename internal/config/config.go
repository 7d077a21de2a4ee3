// Package config handles .pyimpactrc.yml project-level configuration: the
// source roots, prefix classification, and dynamic-dependency overrides
// that feed internal/pygraph. CLI flags override file values; the file's
// absence is not an error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ingo-eichhorst/pyimpact/internal/closure"
	"github.com/ingo-eichhorst/pyimpact/internal/pygraph"
)

// ProjectConfig represents the .pyimpactrc.yml configuration file.
type ProjectConfig struct {
	Version          int               `yaml:"version"`
	Roots            map[string]string `yaml:"roots"`             // import prefix -> containing fs directory
	GlobalPrefixes   []string          `yaml:"global_prefixes"`   // recognized third-party/global import namespaces
	LocalPrefixes    []string          `yaml:"local_prefixes"`    // recognized first-party import namespaces
	ExternalPrefixes []string          `yaml:"external_prefixes"` // opaque leaf namespaces (plugin/framework discovery)
	DynamicDeps      DynamicDeps       `yaml:"dynamic_deps"`
}

// DynamicDeps holds configuration-supplied edges that can't be discovered
// from static source analysis: plugin registries, string-keyed dispatch
// tables, and the like. Two distinct mechanisms exist because spec.md
// names two distinct injection points: PreClosure folds edges into the
// raw graph before Stack_TC runs, so they participate in ordinary cycle
// detection and successor/ancestor closure like any statically-discovered
// import (§4.4.8); Unified/PerPackage splice edges in afterward, at leaf
// components only, to avoid an expensive global closure fixup for the
// common "inject test-runner dependencies" use case (§4.5.3).
type DynamicDeps struct {
	PreClosure map[string][]string `yaml:"pre_closure"` // trigger -> deps, merged into the graph before closure

	Unified    map[string][]string            `yaml:"unified"`     // trigger -> deps, applied regardless of owning package
	PerPackage map[string]map[string][]string `yaml:"per_package"` // owner pkg -> trigger -> deps
}

// ClosureTriggers converts the PerPackage/Unified maps into the shapes
// internal/closure's leaf-edge splice expects: one entry per trigger, with
// PerPackage's (owner -> trigger -> deps) nesting inverted to (trigger ->
// owner -> deps) since a single trigger's leaf components may belong to
// several different owner packages.
func (d DynamicDeps) ClosureTriggers() ([]closure.UnifiedTrigger, []closure.PackageVaryingTrigger) {
	unified := make([]closure.UnifiedTrigger, 0, len(d.Unified))
	for trigger, deps := range d.Unified {
		unified = append(unified, closure.UnifiedTrigger{Trigger: trigger, Deps: toSet(deps)})
	}

	byTrigger := make(map[string]map[string]map[string]struct{})
	for owner, triggers := range d.PerPackage {
		for trigger, deps := range triggers {
			perPkg, ok := byTrigger[trigger]
			if !ok {
				perPkg = make(map[string]map[string]struct{})
				byTrigger[trigger] = perPkg
			}
			perPkg[owner] = toSet(deps)
		}
	}
	perPackage := make([]closure.PackageVaryingTrigger, 0, len(byTrigger))
	for trigger, perPkg := range byTrigger {
		perPackage = append(perPackage, closure.PackageVaryingTrigger{Trigger: trigger, PerPkg: perPkg})
	}

	return unified, perPackage
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// LoadProjectConfig loads project configuration from .pyimpactrc.yml or
// .pyimpactrc.yaml. If explicitPath is provided (from --config flag), that
// file is loaded. Otherwise looks for .pyimpactrc.yml then .pyimpactrc.yaml
// in dir. Returns nil (no error) if no config file is found.
func LoadProjectConfig(dir string, explicitPath string) (*ProjectConfig, error) {
	var configPath string

	if explicitPath != "" {
		configPath = explicitPath
	} else {
		ymlPath := filepath.Join(dir, ".pyimpactrc.yml")
		yamlPath := filepath.Join(dir, ".pyimpactrc.yaml")

		if _, err := os.Stat(ymlPath); err == nil {
			configPath = ymlPath
		} else if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			return nil, nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read project config %s: %w", configPath, err)
	}

	cfg := &ProjectConfig{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse project config %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project config %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate checks that the ProjectConfig values are structurally sound.
func (c *ProjectConfig) Validate() error {
	if c.Version != 0 && c.Version != 1 {
		return fmt.Errorf("unsupported config version %d (expected 1)", c.Version)
	}

	seen := make(map[string]struct{}, len(c.GlobalPrefixes)+len(c.LocalPrefixes)+len(c.ExternalPrefixes))
	for _, group := range [][]string{c.GlobalPrefixes, c.LocalPrefixes, c.ExternalPrefixes} {
		for _, p := range group {
			if p == "" {
				return fmt.Errorf("prefix list entries must not be empty")
			}
			if _, dup := seen[p]; dup {
				return fmt.Errorf("prefix %q listed in more than one of global_prefixes/local_prefixes/external_prefixes", p)
			}
			seen[p] = struct{}{}
		}
	}

	for prefix := range c.Roots {
		if _, ok := seen[prefix]; !ok {
			return fmt.Errorf("roots entry %q is not declared in global_prefixes, local_prefixes, or external_prefixes", prefix)
		}
	}

	return nil
}

// prefixSet converts a slice of prefix names to a membership set.
func prefixSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// GlobalPrefixSet returns GlobalPrefixes as a membership set.
func (c *ProjectConfig) GlobalPrefixSet() map[string]struct{} { return prefixSet(c.GlobalPrefixes) }

// LocalPrefixSet returns LocalPrefixes as a membership set.
func (c *ProjectConfig) LocalPrefixSet() map[string]struct{} { return prefixSet(c.LocalPrefixes) }

// ExternalPrefixSet returns ExternalPrefixes as a membership set.
func (c *ProjectConfig) ExternalPrefixSet() map[string]struct{} {
	return prefixSet(c.ExternalPrefixes)
}

// ToPygraphConfig converts the loaded project configuration into the
// pygraph.Config the graph builder expects.
func (c *ProjectConfig) ToPygraphConfig() pygraph.Config {
	return pygraph.Config{
		Packages:         c.Roots,
		GlobalPrefixes:   c.GlobalPrefixSet(),
		LocalPrefixes:    c.LocalPrefixSet(),
		ExternalPrefixes: c.ExternalPrefixSet(),
	}
}
