package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type document struct {
	Offsets map[string]int64 `json:"offsets"`
	Updated time.Time        `json:"updated"`
}

// Offsets maps source paths to consumed byte offsets.
type Offsets struct {
	mu      sync.RWMutex
	path    string
	offsets map[string]int64
	updated time.Time
}

// Load reads offsets from path. A missing file yields an empty set.
func Load(path string) (*Offsets, error) {
	o := &Offsets{path: path, offsets: make(map[string]int64)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return o, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	for k, v := range doc.Offsets {
		if v >= 0 {
			o.offsets[k] = v
		}
	}
	o.updated = doc.Updated
	return o, nil
}

// Get returns the recorded offset for a source path.
func (o *Offsets) Get(path string) (int64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.offsets[path]
	return v, ok
}

// Set records the offset for a source path. Offsets never move backwards
// unless Reset is used.
func (o *Offsets) Set(path string, offset int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cur, ok := o.offsets[path]; ok && offset < cur {
		return
	}
	o.offsets[path] = offset
}

// Reset records offset for path even when it is smaller than the current one.
func (o *Offsets) Reset(path string, offset int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.offsets[path] = offset
}

// Snapshot returns a copy of the recorded offsets.
func (o *Offsets) Snapshot() map[string]int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	dup := make(map[string]int64, len(o.offsets))
	for k, v := range o.offsets {
		dup[k] = v
	}
	return dup
}

// Updated returns when the offsets were last saved.
func (o *Offsets) Updated() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.updated
}

// Save writes the offsets to disk atomically.
func (o *Offsets) Save() error {
	if o.path == "" {
		return nil
	}

	doc := document{Offsets: o.Snapshot(), Updated: time.Now().UTC()}
	o.mu.Lock()
	o.updated = doc.Updated
	o.mu.Unlock()

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := o.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, o.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
