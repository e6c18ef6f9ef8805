package schema

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Meanings maps table name to column name to a human-authored description.
type Meanings map[string]map[string]string

func (m Meanings) Lookup(table, column string) string {
	if m == nil {
		return ""
	}
	return m[table][column]
}

// LoadMeanings reads the column-meaning annotation file. A missing file is
// not an error; the assistant simply runs without column descriptions.
func LoadMeanings(path string) (Meanings, error) {
	if path == "" {
		return Meanings{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Meanings{}, nil
		}
		return nil, fmt.Errorf("read column meanings: %w", err)
	}
	var meanings Meanings
	if err := json.Unmarshal(data, &meanings); err != nil {
		return nil, fmt.Errorf("parse column meanings: %w", err)
	}
	return meanings, nil
}

// LoadKnowledge reads the domain-knowledge corpus, one JSON record per line.
// A missing file yields an empty corpus.
func LoadKnowledge(path string) ([]json.RawMessage, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}
	defer func() { _ = file.Close() }()

	var items []json.RawMessage
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, fmt.Errorf("invalid knowledge base record: %q", string(line))
		}
		items = append(items, json.RawMessage(append([]byte(nil), line...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return items, nil
}
