package conformance

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// TestPath is the fixture directory, relative to this package.
const TestPath = "testdata"

// LoadedCase is a case together with the suite and file it came from.
type LoadedCase struct {
	File  string
	Suite *Suite
	Case  Case
}

// LoadSuites reads every .yaml file under dir. Files are visited in name
// order so results are stable.
func LoadSuites(dir string) ([]LoadedCase, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".yaml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var loaded []LoadedCase
	for _, path := range paths {
		suite, err := loadSuite(path)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		for _, c := range suite.Cases {
			loaded = append(loaded, LoadedCase{File: rel, Suite: suite, Case: c})
		}
		log.Printf("conformance: loaded %d cases from %s", len(suite.Cases), rel)
	}
	return loaded, nil
}

func loadSuite(path string) (*Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var suite Suite
	if err := dec.Decode(&suite); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i, c := range suite.Cases {
		if c.Name == "" {
			return nil, fmt.Errorf("%s: case %d has no name", path, i)
		}
	}
	return &suite, nil
}
