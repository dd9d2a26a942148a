package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/modforge/gffkit/diff"
	"github.com/modforge/gffkit/patch"
)

// runConfig describes a multi-file script build.
type runConfigFile struct {
	Script       string `yaml:"script"`
	KeepDefaults bool   `yaml:"keep_defaults"`
	Files        []struct {
		Name string `yaml:"name"`
		Old  string `yaml:"old"`
		New  string `yaml:"new"`
	} `yaml:"files"`
}

func runConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cfg runConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Script == "" {
		return fmt.Errorf("%s: script output path is required", path)
	}
	if len(cfg.Files) == 0 {
		return fmt.Errorf("%s: no files to compare", path)
	}

	diffs := make([]patch.FileDiff, 0, len(cfg.Files))
	for _, f := range cfg.Files {
		name := f.Name
		if name == "" {
			name = filepath.Base(f.New)
		}
		oldTree, newTree, err := loadPair(f.Old, f.New)
		if err != nil {
			return err
		}
		res := diff.Compare(oldTree, newTree, diff.Options{IgnoreDefaultAdditions: !cfg.KeepDefaults})
		if res.Status == diff.Identical {
			fmt.Printf("%s: identical, skipped\n", name)
			continue
		}
		diffs = append(diffs, patch.FileDiff{Name: name, Old: oldTree, New: newTree, Result: res})
	}

	s, err := patch.BuildScript(nil, diffs)
	if err != nil {
		return err
	}
	text, err := patch.EmitScriptString(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Script, []byte(text), 0o644); err != nil {
		return err
	}
	fmt.Printf("Script with %d file section(s) written to %s\n", len(s.Files), cfg.Script)
	return nil
}
