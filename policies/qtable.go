package policies

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// QTable is a sparse two-level mapping from a state fingerprint and an
// action key to a value. Unseen pairs materialize lazily with the
// configured default on first read and count toward the table size from
// then on.
type QTable struct {
	table      map[string]map[string]float64
	defaultVal float64
}

func NewQTable(defaultVal float64) *QTable {
	return &QTable{
		table:      make(map[string]map[string]float64),
		defaultVal: defaultVal,
	}
}

// Get looks up Q(state, action), storing the default for unseen pairs.
func (q *QTable) Get(state, action string) float64 {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	if _, ok := q.table[state][action]; !ok {
		q.table[state][action] = q.defaultVal
	}
	return q.table[state][action]
}

// Set overwrites or creates Q(state, action).
func (q *QTable) Set(state, action string, val float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	q.table[state][action] = val
}

// MaxAmong returns the first maximizer of Q(state, action) over actions in
// the given order, together with its value. Unseen pairs materialize with
// the default. The boolean is false when actions is empty.
func (q *QTable) MaxAmong(state string, actions []string) (string, float64, bool) {
	if len(actions) == 0 {
		return "", 0, false
	}
	maxAction := ""
	maxVal := 0.0
	for i, a := range actions {
		val := q.Get(state, a)
		if i == 0 || val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	return maxAction, maxVal, true
}

// Len counts the materialized (state, action) entries.
func (q *QTable) Len() int {
	n := 0
	for _, actions := range q.table {
		n += len(actions)
	}
	return n
}

// Snapshot returns a copy of the stored entries.
func (q *QTable) Snapshot() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(q.table))
	for state, actions := range q.table {
		out[state] = make(map[string]float64, len(actions))
		for a, v := range actions {
			out[state][a] = v
		}
	}
	return out
}

// Restore replaces the stored entries with a copy of entries.
func (q *QTable) Restore(entries map[string]map[string]float64) {
	q.table = make(map[string]map[string]float64, len(entries))
	for state, actions := range entries {
		q.table[state] = make(map[string]float64, len(actions))
		for a, v := range actions {
			q.table[state][a] = v
		}
	}
}

// Save serializes the table to path as JSON. Saving and loading back
// yields an identical mapping.
func (q *QTable) Save(path string) error {
	bs, err := json.Marshal(q.table)
	if err != nil {
		return fmt.Errorf("marshaling q table: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating q table file: %w", err)
	}
	defer file.Close()
	writer := bufio.NewWriter(file)
	if _, err := writer.Write(bs); err != nil {
		return fmt.Errorf("writing q table file: %w", err)
	}
	return writer.Flush()
}

// Load replaces the table contents with the mapping stored at path.
// A missing or corrupt file is reported to the caller; the table is left
// unchanged in that case.
func (q *QTable) Load(path string) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading q table file: %w", err)
	}
	table := make(map[string]map[string]float64)
	if err := json.Unmarshal(bs, &table); err != nil {
		return fmt.Errorf("parsing q table file %s: %w", path, err)
	}
	q.table = table
	return nil
}
