// Package store persists Q-value tables between training runs. The marker
// is baked into every file name and Redis key, so the two sides of a game
// can never end up aliasing one table on disk.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/policies"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

// TableStore saves and loads one table per marker.
type TableStore interface {
	Save(marker tictactoe.Cell, table *policies.QTable) error
	// Load replaces the table contents. A missing record is reported with
	// an error wrapping fs.ErrNotExist.
	Load(marker tictactoe.Cell, table *policies.QTable) error
}

// LoadIfPresent loads the marker's table if a record exists and leaves the
// table untouched otherwise. Starting from an empty table is an explicit
// choice made here by the caller, never a silent substitution by a store.
func LoadIfPresent(s TableStore, marker tictactoe.Cell, table *policies.QTable) error {
	err := s.Load(marker, table)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// TableName returns the per-side record name.
func TableName(marker tictactoe.Cell) string {
	if marker == tictactoe.First {
		return "q_table_player1"
	}
	return "q_table_player2"
}

// FileStore keeps one JSON file per marker inside Dir.
type FileStore struct {
	Dir string
}

var _ TableStore = &FileStore{}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating table directory: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (f *FileStore) Save(marker tictactoe.Cell, table *policies.QTable) error {
	return table.Save(path.Join(f.Dir, TableName(marker)))
}

func (f *FileStore) Load(marker tictactoe.Cell, table *policies.QTable) error {
	return table.Load(path.Join(f.Dir, TableName(marker)))
}
