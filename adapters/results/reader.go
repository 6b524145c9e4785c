package results

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"kenobase/domain/ecosystem"
)

// FileReader reads coupling-results files from disk
type FileReader struct{}

// NewFileReader creates a results reader backed by the filesystem
func NewFileReader() *FileReader {
	return &FileReader{}
}

// ReadPrimary loads and decodes the primary results file
func (r *FileReader) ReadPrimary(path string) (*ecosystem.PrimaryResults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePrimary(data)
}

// ReadAlternative loads and decodes an alternative-methods results file
func (r *FileReader) ReadAlternative(path string) (*ecosystem.AlternativeResults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseAlternative(data)
}

// ParsePrimary decodes the primary file. Games are returned in file order;
// absent trigger sections decode to empty slices.
func ParsePrimary(data []byte) (*ecosystem.PrimaryResults, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("expected a JSON object at top level, got %s", root.Type)
	}

	results := &ecosystem.PrimaryResults{
		Games:    make([]ecosystem.GameRecord, 0),
		Triggers: make(map[string][]ecosystem.TriggerRecord, len(ecosystem.TriggerCategories)),
	}

	var decodeErr error
	root.Get("games").ForEach(func(key, value gjson.Result) bool {
		var game ecosystem.GameRecord
		if err := json.Unmarshal([]byte(value.Raw), &game); err != nil {
			decodeErr = fmt.Errorf("games.%s: %w", key.String(), err)
			return false
		}
		game.Name = key.String()
		results.Games = append(results.Games, game)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	if cfg := root.Get("config"); cfg.IsObject() {
		if m, ok := cfg.Value().(map[string]interface{}); ok {
			results.Config = m
		}
	}

	significant := root.Get("conditional_lifts.significant")
	for _, category := range ecosystem.TriggerCategories {
		records := make([]ecosystem.TriggerRecord, 0)
		section := significant.Get(category.Key)
		if section.Exists() && !section.IsArray() {
			return nil, fmt.Errorf("conditional_lifts.significant.%s: expected array", category.Key)
		}
		for i, item := range section.Array() {
			var record ecosystem.TriggerRecord
			if err := json.Unmarshal([]byte(item.Raw), &record); err != nil {
				return nil, fmt.Errorf("conditional_lifts.significant.%s[%d]: %w", category.Key, i, err)
			}
			records = append(records, record)
		}
		results.Triggers[category.Key] = records
	}

	return results, nil
}

// ParseAlternative decodes an alternative-methods file
func ParseAlternative(data []byte) (*ecosystem.AlternativeResults, error) {
	var results ecosystem.AlternativeResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	if results.Results == nil {
		results.Results = make([]ecosystem.AlternativeRecord, 0)
	}
	return &results, nil
}
