package store

import (
	"context"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/policies"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

// RedisStore keeps each side's table in one Redis hash, one field per
// (fingerprint, action) pair. Useful for long trainings that should
// survive the process and be inspectable from redis-cli.
type RedisStore struct {
	client *redis.Client
	prefix string
	ctx    context.Context
}

var _ TableStore = &RedisStore{}

func NewRedisStore(addr, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "tictactoe"
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
		ctx:    context.Background(),
	}
}

func (r *RedisStore) key(marker tictactoe.Cell) string {
	return r.prefix + ":" + TableName(marker)
}

// fields are "fingerprint|action". Fingerprints only contain the cell
// codes 'X', 'O' and '.', so '|' cannot occur inside one.
func field(state, action string) string {
	return state + "|" + action
}

func splitField(f string) (string, string, error) {
	i := strings.IndexByte(f, '|')
	if i < 0 {
		return "", "", fmt.Errorf("malformed table field %q", f)
	}
	return f[:i], f[i+1:], nil
}

func (r *RedisStore) Save(marker tictactoe.Cell, table *policies.QTable) error {
	key := r.key(marker)
	if err := r.client.Del(r.ctx, key).Err(); err != nil {
		return fmt.Errorf("clearing %s: %w", key, err)
	}
	entries := table.Snapshot()
	pairs := make([]interface{}, 0, 2*len(entries))
	for state, actions := range entries {
		for action, val := range actions {
			pairs = append(pairs, field(state, action), strconv.FormatFloat(val, 'g', -1, 64))
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	if err := r.client.HSet(r.ctx, key, pairs...).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Load(marker tictactoe.Cell, table *policies.QTable) error {
	key := r.key(marker)
	stored, err := r.client.HGetAll(r.ctx, key).Result()
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if len(stored) == 0 {
		return fmt.Errorf("no table at %s: %w", key, fs.ErrNotExist)
	}
	entries := make(map[string]map[string]float64)
	for f, raw := range stored {
		state, action, err := splitField(f)
		if err != nil {
			return err
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parsing value of %q: %w", f, err)
		}
		if _, ok := entries[state]; !ok {
			entries[state] = make(map[string]float64)
		}
		entries[state][action] = val
	}
	table.Restore(entries)
	return nil
}
