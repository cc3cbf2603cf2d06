package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirNotFoundError is returned when a scenario directory does not exist.
type DirNotFoundError struct {
	Dir string
}

func (e *DirNotFoundError) Error() string {
	return fmt.Sprintf("scenario directory not found: %s", e.Dir)
}

// FindScenarioFiles returns the .yaml and .yml files under dir in lexical
// order. Golden directories are skipped. A non-empty filter is a glob
// matched against the file name without its extension.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &DirNotFoundError{Dir: dir}
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing scenario directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && info.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if ok, _ := filepath.Match(filter, name); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// SuiteEntry is one scenario file of a suite. Err is set when the file
// failed to load; File is nil then.
type SuiteEntry struct {
	Path string
	File *ScenarioFile
	Err  error
}

// Name is the scenario name, or the file name when loading failed.
func (e SuiteEntry) Name() string {
	if e.File != nil {
		return e.File.Name
	}
	return strings.TrimSuffix(filepath.Base(e.Path), filepath.Ext(e.Path))
}

// LoadSuite loads every scenario file under dir. A file that fails to load
// does not stop the others. Two files declaring the same scenario name are
// both kept; the later one carries the error.
func LoadSuite(dir, filter string) ([]SuiteEntry, error) {
	paths, err := FindScenarioFiles(dir, filter)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(paths))
	entries := make([]SuiteEntry, 0, len(paths))
	for _, path := range paths {
		f, err := LoadScenarioFile(path)
		entry := SuiteEntry{Path: path, File: f, Err: err}
		if err == nil {
			if first, dup := seen[f.Name]; dup {
				entry.Err = fmt.Errorf("duplicate scenario name %q (first declared in %s)", f.Name, first)
			} else {
				seen[f.Name] = path
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RunSuite runs the entries in order. Entries that failed to load become
// failed verdicts so that they show up in the report and the exit code.
func (r *Report) RunSuite(entries []SuiteEntry) []Verdict {
	out := make([]Verdict, 0, len(entries))
	for _, e := range entries {
		if e.Err == nil {
			s, err := e.File.Scenario()
			if err == nil {
				out = append(out, r.Run(s))
				continue
			}
			e.Err = err
		}
		v := Verdict{
			Scenario: e.Name(),
			Status:   StatusFail,
			Reasons:  []string{firstLine(e.Err.Error())},
		}
		r.Add(v)
		v.Phase = PhaseReported
		out = append(out, v)
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
