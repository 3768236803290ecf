package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/weatherwidget/internal/weather"
)

const defaultNamespace = "weatherwidget"

// commitScript installs ARGV[2] as the current record only while ARGV[1] is
// still the latest issued sequence number.
var commitScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('SET', KEYS[2], ARGV[2])
	return 1
end
return 0
`)

// RecordStore keeps the current weather record and the lookup sequence in
// Redis, so every replica serving the widget shows the same record.
type RecordStore struct {
	client     *redis.Client
	seqKey     string
	currentKey string
}

// NewRecordStore constructs a RecordStore. An empty namespace uses the default.
func NewRecordStore(client *redis.Client, namespace string) *RecordStore {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &RecordStore{
		client:     client,
		seqKey:     namespace + ":seq",
		currentKey: namespace + ":current",
	}
}

// Begin issues the next lookup sequence number.
func (s *RecordStore) Begin(ctx context.Context) (uint64, error) {
	seq, err := s.client.Incr(ctx, s.seqKey).Uint64()
	if err != nil {
		return 0, fmt.Errorf("issuing lookup sequence: %w", err)
	}
	return seq, nil
}

// Commit installs rec if seq is still the latest issued.
func (s *RecordStore) Commit(ctx context.Context, seq uint64, rec *weather.Record) (bool, error) {
	if rec == nil {
		return false, nil
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshaling record for %s: %w", rec.Name, err)
	}

	n, err := commitScript.Run(ctx, s.client, []string{s.seqKey, s.currentKey}, strconv.FormatUint(seq, 10), b).Int()
	if err != nil {
		return false, fmt.Errorf("committing record for %s: %w", rec.Name, err)
	}

	return n == 1, nil
}

// Current returns the installed record, or nil, nil when none exists yet.
func (s *RecordStore) Current(ctx context.Context) (*weather.Record, error) {
	val, err := s.client.Get(ctx, s.currentKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading current record: %w", err)
	}

	var rec weather.Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling current record: %w", err)
	}

	return &rec, nil
}
