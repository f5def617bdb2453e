package corpus

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/mirlab/softsim/internal/config"
)

// Raw is an unsplit labeled corpus as produced by a loader.
type Raw struct {
	Texts  []string
	Labels []int
}

// LoadRaw dispatches to the loader named by spec.
func LoadRaw(root string, spec config.DatasetSpec) (*Raw, error) {
	path := spec.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	switch spec.Loader {
	case "csv":
		return loadCSV(path, spec)
	case "dirtree":
		return loadDirTree(path, spec)
	case "jsonl":
		return loadJSONL(path, spec)
	case "lines":
		return loadLines(path)
	default:
		return nil, fmt.Errorf("dataset %s: unknown loader %q", spec.Name, spec.Loader)
	}
}

// categoryIndex maps label strings to class numbers per spec.Categories.
func categoryIndex(spec config.DatasetSpec) map[string]int {
	idx := make(map[string]int, len(spec.Categories))
	for i, c := range spec.Categories {
		idx[c] = i
	}
	return idx
}

// loadCSV reads a header-mapped CSV file; rows whose label is not listed in
// spec.Categories are dropped.
func loadCSV(path string, spec config.DatasetSpec) (*Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header %s: %w", path, err)
	}
	textCol, labelCol := -1, -1
	for i, name := range header {
		switch name {
		case spec.TextField:
			textCol = i
		case spec.LabelField:
			labelCol = i
		}
	}
	if textCol < 0 || labelCol < 0 {
		return nil, fmt.Errorf("%s: columns %q/%q not found in header", path, spec.TextField, spec.LabelField)
	}

	idx := categoryIndex(spec)
	var raw Raw
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read CSV row in %s: %w", path, err)
		}
		if textCol >= len(rec) || labelCol >= len(rec) {
			continue
		}
		class, ok := idx[rec[labelCol]]
		if !ok {
			continue
		}
		raw.Texts = append(raw.Texts, rec[textCol])
		raw.Labels = append(raw.Labels, class)
	}
	return &raw, nil
}

// loadDirTree reads one subdirectory per category, one document per file.
// Files are visited in sorted order so the corpus is deterministic.
func loadDirTree(dir string, spec config.DatasetSpec) (*Raw, error) {
	var raw Raw
	for class, category := range spec.Categories {
		catDir := filepath.Join(dir, category)
		entries, err := os.ReadDir(catDir)
		if err != nil {
			return nil, fmt.Errorf("cannot read category dir %s: %w", catDir, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			body, err := os.ReadFile(filepath.Join(catDir, name))
			if err != nil {
				return nil, fmt.Errorf("cannot read document %s: %w", name, err)
			}
			raw.Texts = append(raw.Texts, string(body))
			raw.Labels = append(raw.Labels, class)
		}
	}
	return &raw, nil
}

// loadJSONL reads newline-delimited JSON objects. Either the whole corpus
// sits in one file with a label field, or spec.Categories name one
// <dir>/<category>.jsonl file per category.
func loadJSONL(path string, spec config.DatasetSpec) (*Raw, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if st.IsDir() {
		var raw Raw
		for class, category := range spec.Categories {
			part, err := readJSONLFile(filepath.Join(path, category+".jsonl"), spec.TextField)
			if err != nil {
				return nil, err
			}
			for _, text := range part {
				raw.Texts = append(raw.Texts, text)
				raw.Labels = append(raw.Labels, class)
			}
		}
		return &raw, nil
	}

	// Single file: label field holds the category name.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	idx := categoryIndex(spec)
	var raw Raw
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, fmt.Errorf("invalid JSONL in %s: %w", path, err)
		}
		text, _ := obj[spec.TextField].(string)
		label, _ := obj[spec.LabelField].(string)
		class, ok := idx[label]
		if !ok {
			continue
		}
		raw.Texts = append(raw.Texts, text)
		raw.Labels = append(raw.Labels, class)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return &raw, nil
}

func readJSONLFile(path, textField string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, fmt.Errorf("invalid JSONL in %s: %w", path, err)
		}
		if text, ok := obj[textField].(string); ok {
			out = append(out, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return out, nil
}

// loadLines reads an unlabeled corpus, one document per line.
func loadLines(path string) (*Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	var raw Raw
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		raw.Texts = append(raw.Texts, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return &raw, nil
}
