// Package keywords loads the pre-extracted keyword records produced for
// resumes and job descriptions.
package keywords

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Document is an ordered keyword list. Elements may be single words or short
// phrases; callers must not mutate it.
type Document []string

// Text joins the keywords with single spaces.
func (d Document) Text() string {
	return strings.Join(d, " ")
}

// Record is a processed resume or job description.
type Record struct {
	UniqueID  string   `mapstructure:"unique_id"`
	Name      string   `mapstructure:"name"`
	CleanData string   `mapstructure:"clean_data"`
	Keywords  Document `mapstructure:"extracted_keywords"`
	Keyterms  []any    `mapstructure:"keyterms"`
}

// Reference is one element of a batch: a job identifier and its keywords.
type Reference struct {
	ID       string
	Keywords Document
}

var extensions = map[string]struct{}{
	".json": {},
	".yaml": {},
	".yml":  {},
}

// Parse decodes a JSON or YAML record. JSON is read through the YAML decoder.
// A key repeated within one mapping keeps its last value.
func Parse(data []byte) (*Record, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &MalformedInputError{Message: "cannot parse record", Cause: err}
	}

	value, err := nodeValue(&root)
	if err != nil {
		return nil, &MalformedInputError{Message: "cannot parse record", Cause: err}
	}
	if value == nil {
		return nil, &MalformedInputError{Message: "empty record", Cause: ErrMissingKeywords}
	}
	doc, ok := value.(map[string]any)
	if !ok {
		return nil, &MalformedInputError{Message: "record is not a mapping"}
	}

	if err := validate(doc); err != nil {
		return nil, err
	}

	var record Record
	if err := mapstructure.Decode(doc, &record); err != nil {
		return nil, &MalformedInputError{Message: "cannot decode record", Cause: err}
	}
	if record.Keywords == nil {
		record.Keywords = Document{}
	}

	return &record, nil
}

// nodeValue converts a parsed YAML node into plain Go values. Mappings are
// built key by key so a repeated key overwrites the earlier one.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			value, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = value
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := nodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	default:
		var value any
		if err := n.Decode(&value); err != nil {
			return nil, err
		}
		return value, nil
	}
}

// LoadRecord reads and parses the record stored at path.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record %q: %w", path, err)
	}

	record, err := Parse(data)
	if err != nil {
		var malformed *MalformedInputError
		if errors.As(err, &malformed) {
			malformed.Path = path
		}
		return nil, err
	}
	return record, nil
}

// ListRecords returns the record files of dir in lexical order.
func ListRecords(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := extensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	return files, nil
}

// RoleName derives the display name of a record identifier: its base name up
// to the first dot.
func RoleName(id string) string {
	base := filepath.Base(id)
	if idx := strings.Index(base, "."); idx >= 0 {
		return base[:idx]
	}
	return base
}
