package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const stateFileName = "state.yaml"

// YAMLKV keeps all keys in a single YAML map that is rewritten on every set.
type YAMLKV struct {
	mu   sync.Mutex
	path string
}

// NewYAMLKV returns a YAML-file container at path. The file is created on
// the first write.
func NewYAMLKV(path string) *YAMLKV {
	return &YAMLKV{path: path}
}

func (kv *YAMLKV) Int64(_ context.Context, key string) (int64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	values, err := kv.readLocked()
	if err != nil {
		return 0, err
	}
	return values[key], nil
}

func (kv *YAMLKV) SetInt64(_ context.Context, key string, value int64) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	values, err := kv.readLocked()
	if err != nil {
		return err
	}
	values[key] = value

	if err := os.MkdirAll(filepath.Dir(kv.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	serialized, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal state yaml: %w", err)
	}

	tmpPath := kv.path + ".tmp"
	if err := os.WriteFile(tmpPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmpPath, kv.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (kv *YAMLKV) readLocked() (map[string]int64, error) {
	values := make(map[string]int64)
	rawData, err := os.ReadFile(kv.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if err := yaml.Unmarshal(rawData, &values); err != nil {
		return nil, fmt.Errorf("parse state yaml: %w", err)
	}
	if values == nil {
		values = make(map[string]int64)
	}
	return values, nil
}
