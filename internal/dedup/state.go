package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// stateConfig is the portable form of the scoring parameters
type stateConfig struct {
	SemanticThreshold float64 `json:"semantic_threshold"`
	MetadataWeight    float64 `json:"metadata_weight"`
	SubjectWeight     float64 `json:"subject_weight"`
	ContentWeight     float64 `json:"content_weight"`
	TimeWindowHours   float64 `json:"time_window_hours"`
}

// detectorState is the on-disk layout of a detector snapshot
type detectorState struct {
	Configuration stateConfig        `json:"configuration"`
	Cache         map[string]*Record `json:"cache"`
}

// SaveState serializes the scoring configuration and cache to path.
// Embeddings are stored as plain numeric lists.
func (d *Detector) SaveState(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := detectorState{
		Configuration: stateConfig{
			SemanticThreshold: d.cfg.SemanticThreshold,
			MetadataWeight:    d.cfg.MetadataWeight,
			SubjectWeight:     d.cfg.SubjectWeight,
			ContentWeight:     d.cfg.ContentWeight,
			TimeWindowHours:   d.cfg.TimeWindow.Hours(),
		},
		Cache: make(map[string]*Record, d.cache.Len()),
	}

	for _, key := range d.cache.Keys() {
		if entry, ok := d.cache.Peek(key); ok {
			state.Cache[key] = entry
		}
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode detector state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write detector state: %w", err)
	}

	d.logger.Info("Saved detector state",
		zap.String("path", path),
		zap.Int("entries", len(state.Cache)))
	return nil
}

// LoadState restores a snapshot written by SaveState. Scoring parameters
// present in the file override the current ones; cache entries are replayed
// through the capacity-bounded Put, so a state file larger than the
// configured capacity silently loses its earliest entries. On failure the
// in-memory state is unchanged.
func (d *Detector) LoadState(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read detector state: %w", err)
	}

	var state detectorState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to decode detector state: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if state.Configuration.SemanticThreshold > 0 {
		d.cfg.SemanticThreshold = state.Configuration.SemanticThreshold
	}
	if state.Configuration.MetadataWeight > 0 {
		d.cfg.MetadataWeight = state.Configuration.MetadataWeight
	}
	if state.Configuration.SubjectWeight > 0 {
		d.cfg.SubjectWeight = state.Configuration.SubjectWeight
	}
	if state.Configuration.ContentWeight > 0 {
		d.cfg.ContentWeight = state.Configuration.ContentWeight
	}
	if state.Configuration.TimeWindowHours > 0 {
		d.cfg.TimeWindow = time.Duration(state.Configuration.TimeWindowHours * float64(time.Hour))
	}

	for key, entry := range state.Cache {
		d.cache.Put(key, entry)
	}

	d.logger.Info("Loaded detector state",
		zap.String("path", path),
		zap.Int("entries", len(state.Cache)),
		zap.Int("cache_size", d.cache.Len()))
	return nil
}
