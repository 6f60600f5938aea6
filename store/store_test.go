package store

import (
	"os"
	"path"
	"reflect"
	"testing"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/policies"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	table := policies.NewQTable(0)
	table.Set("X...O....", "(2,0)", 0.5)
	table.Set("X...O....", "(2,1)", -0.25)
	if err := fs.Save(tictactoe.First, table); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := policies.NewQTable(0)
	if err := fs.Load(tictactoe.First, loaded); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(table.Snapshot(), loaded.Snapshot()) {
		t.Errorf("round trip mismatch")
	}
}

func TestFileStoreSeparatesMarkers(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	t1 := policies.NewQTable(0)
	t1.Set("s", "a", 1)
	t2 := policies.NewQTable(0)
	t2.Set("s", "a", -1)
	if err := fs.Save(tictactoe.First, t1); err != nil {
		t.Fatal(err)
	}
	if err := fs.Save(tictactoe.Second, t2); err != nil {
		t.Fatal(err)
	}

	got1 := policies.NewQTable(0)
	got2 := policies.NewQTable(0)
	if err := fs.Load(tictactoe.First, got1); err != nil {
		t.Fatal(err)
	}
	if err := fs.Load(tictactoe.Second, got2); err != nil {
		t.Fatal(err)
	}
	if got1.Get("s", "a") != 1 || got2.Get("s", "a") != -1 {
		t.Errorf("the two sides' tables must never alias")
	}

	if _, err := os.Stat(path.Join(fs.Dir, "q_table_player1")); err != nil {
		t.Errorf("expected q_table_player1 on disk: %v", err)
	}
	if _, err := os.Stat(path.Join(fs.Dir, "q_table_player2")); err != nil {
		t.Errorf("expected q_table_player2 on disk: %v", err)
	}
}

func TestLoadIfPresentMissing(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	table := policies.NewQTable(0)
	table.Set("s", "a", 2)
	if err := LoadIfPresent(fs, tictactoe.First, table); err != nil {
		t.Fatalf("LoadIfPresent with no record should succeed, got %v", err)
	}
	if table.Get("s", "a") != 2 {
		t.Errorf("LoadIfPresent with no record must leave the table unchanged")
	}
}

func TestRedisFieldEncoding(t *testing.T) {
	state, action, err := splitField(field("X..O.....", "(1,2)"))
	if err != nil {
		t.Fatal(err)
	}
	if state != "X..O....." || action != "(1,2)" {
		t.Errorf("splitField = (%q, %q)", state, action)
	}
	if _, _, err := splitField("garbage"); err == nil {
		t.Errorf("expected error on field without separator")
	}
}
