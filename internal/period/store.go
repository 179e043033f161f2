// Package period maps transaction dates to storage partitions and loads and
// rewrites whole partitions through a sheets.Table.
package period

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"
)

// Mode selects how transactions are split across partitions.
type Mode string

const (
	ModeSingle  Mode = "single"
	ModeMonthly Mode = "monthly"
)

var (
	ErrStoreRead    = errors.New("store read failed")
	ErrStoreWrite   = errors.New("store write failed")
	ErrInvalidMode  = errors.New("invalid storage mode")
	ErrNotSupported = errors.New("table cannot list partitions")
	errNilTable     = errors.New("nil table")
)

const (
	defaultCacheSize = 32
	defaultCacheTTL  = 5 * time.Minute
)

// ParseMode accepts "single" or "monthly", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSingle:
		return ModeSingle, nil
	case ModeMonthly:
		return ModeMonthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Snapshot is the ordered content of one partition at load time. Row position
// is the index used by DeleteByIndices. Err is set when the read failed, in
// which case Rows is empty.
type Snapshot struct {
	Key  core.PartitionKey
	Rows []core.Row
	Err  error
}

// Options tune a Store. Zero values pick defaults.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	Logger    *log.Logger
}

// Store is the handle for partition reads and writes. It is safe for
// concurrent use, but concurrent writers to one partition can overwrite each
// other's changes.
type Store struct {
	mode   Mode
	table  sheets.Table
	cache  *cache.LRUCache[[]core.Row]
	group  singleflight.Group
	logger *log.Logger

	// generations count invalidations per key; a load only caches its rows
	// if no write invalidated the key while it was reading.
	mu          sync.Mutex
	generations map[core.PartitionKey]uint64
}

func NewStore(mode Mode, table sheets.Table, opts Options) (*Store, error) {
	if mode != ModeSingle && mode != ModeMonthly {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if table == nil {
		return nil, errNilTable
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{
		mode:        mode,
		table:       table,
		cache:       cache.NewLRUCache[[]core.Row](opts.CacheSize, opts.CacheTTL),
		logger:      logger.WithComponent(log.ComponentPeriod),
		generations: make(map[core.PartitionKey]uint64),
	}, nil
}

func (s *Store) Mode() Mode { return s.mode }

// Cache exposes the snapshot cache so a cache.Manager can expire it.
func (s *Store) Cache() cache.Cleaner { return s.cache }

// Resolve returns the partition a transaction dated d is stored in.
func (s *Store) Resolve(d core.Date) core.PartitionKey {
	if s.mode == ModeSingle {
		return core.SingleKey
	}
	return core.MonthKey(d)
}

// Check reports whether key names a partition of this store's mode: SingleKey
// in single mode, a "YYYY-MM" key in monthly mode.
func (s *Store) Check(key core.PartitionKey) error {
	if s.mode == ModeSingle {
		if key == core.SingleKey {
			return nil
		}
	} else if _, _, ok := key.YearMonth(); ok {
		return nil
	}
	return fmt.Errorf("%w: %q in %s mode", core.ErrInvalidPartition, key, s.mode)
}

// Load returns the partition's rows, from cache when possible. It never fails:
// a read error yields an empty snapshot with Err wrapping ErrStoreRead, and a
// key outside the store's mode one wrapping core.ErrInvalidPartition.
func (s *Store) Load(ctx context.Context, key core.PartitionKey) Snapshot {
	if err := s.Check(key); err != nil {
		return Snapshot{Key: key, Err: err}
	}
	if rows, ok := s.cache.Get(string(key)); ok {
		return Snapshot{Key: key, Rows: cloneRows(rows)}
	}

	gen := s.generation(key)
	v, err, _ := s.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		rows, err := s.table.ReadTable(ctx, key)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.generations[key] == gen {
			s.cache.Set(string(key), rows)
		}
		s.mu.Unlock()
		return rows, nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Partition read failed, showing empty view",
			log.FieldOperation, log.OpLoad,
			log.FieldPartition, key.String(),
			log.FieldError, err)
		return Snapshot{Key: key, Err: fmt.Errorf("%w: %s: %w", ErrStoreRead, key, err)}
	}
	rows := v.([]core.Row)
	s.logger.DebugContext(ctx, "Partition loaded",
		log.FieldPartition, key.String(),
		log.FieldRows, len(rows))
	return Snapshot{Key: key, Rows: cloneRows(rows)}
}

// Append adds row at the end of the partition, creating it when missing.
// The current rows are read fresh; if that read fails nothing is written.
func (s *Store) Append(ctx context.Context, key core.PartitionKey, row core.Row) error {
	if err := s.Check(key); err != nil {
		return err
	}
	rows, err := s.table.ReadTable(ctx, key)
	if err != nil {
		return s.writeFailed(ctx, log.OpAppend, key, fmt.Errorf("read before append: %w", err))
	}
	next := make([]core.Row, 0, len(rows)+1)
	next = append(next, rows...)
	next = append(next, row.Clone())
	return s.replace(ctx, log.OpAppend, key, next)
}

// DeleteByIndices removes the rows at the given snapshot positions, rewrites
// the partition and returns how many rows went. Duplicate and out-of-range
// indices are ignored; when none match, nothing is written. Indices refer to
// the partition as it is now: if it changed since the caller loaded it,
// different rows are removed.
func (s *Store) DeleteByIndices(ctx context.Context, key core.PartitionKey, indices []int) (int, error) {
	if err := s.Check(key); err != nil {
		return 0, err
	}
	rows, err := s.table.ReadTable(ctx, key)
	if err != nil {
		return 0, s.writeFailed(ctx, log.OpDelete, key, fmt.Errorf("read before delete: %w", err))
	}
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		drop[i] = struct{}{}
	}
	kept := make([]core.Row, 0, len(rows))
	for i, r := range rows {
		if _, ok := drop[i]; ok {
			continue
		}
		kept = append(kept, r)
	}
	removed := len(rows) - len(kept)
	if removed == 0 {
		s.logger.DebugContext(ctx, "No rows matched, partition left as is",
			log.FieldPartition, key.String(),
			log.FieldIndices, indices)
		return 0, nil
	}
	s.logger.DebugContext(ctx, "Deleting rows",
		log.FieldPartition, key.String(),
		log.FieldIndices, indices,
		"removed", removed)
	if err := s.replace(ctx, log.OpDelete, key, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Replace overwrites the partition with rows.
func (s *Store) Replace(ctx context.Context, key core.PartitionKey, rows []core.Row) error {
	if err := s.Check(key); err != nil {
		return err
	}
	return s.replace(ctx, log.OpReplace, key, cloneRows(rows))
}

func (s *Store) replace(ctx context.Context, op string, key core.PartitionKey, rows []core.Row) error {
	if err := s.table.WriteTable(ctx, key, rows); err != nil {
		return s.writeFailed(ctx, op, key, err)
	}
	s.Invalidate(key)
	s.logger.InfoContext(ctx, "Partition written",
		log.FieldOperation, op,
		log.FieldPartition, key.String(),
		log.FieldRows, len(rows))
	return nil
}

func (s *Store) writeFailed(ctx context.Context, op string, key core.PartitionKey, err error) error {
	s.logger.ErrorContext(ctx, "Partition write failed",
		log.FieldOperation, op,
		log.FieldPartition, key.String(),
		log.FieldError, err)
	return fmt.Errorf("%w: %s: %w", ErrStoreWrite, key, err)
}

// Invalidate drops the cached snapshot of key. Loads already reading key
// will not cache what they read.
func (s *Store) Invalidate(key core.PartitionKey) {
	s.mu.Lock()
	s.generations[key]++
	s.cache.Delete(string(key))
	s.mu.Unlock()
}

func (s *Store) generation(key core.PartitionKey) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[key]
}

// Partitions lists the partitions the table holds, newest month first. In
// single mode it is always SingleKey. Tables that cannot enumerate return
// ErrNotSupported.
func (s *Store) Partitions(ctx context.Context) ([]core.PartitionKey, error) {
	if s.mode == ModeSingle {
		return []core.PartitionKey{core.SingleKey}, nil
	}
	lister, ok := s.table.(sheets.PartitionLister)
	if !ok {
		return nil, ErrNotSupported
	}
	keys, err := lister.ListPartitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list partitions: %w", ErrStoreRead, err)
	}
	out := make([]core.PartitionKey, 0, len(keys))
	for _, k := range keys {
		if _, _, ok := k.YearMonth(); ok {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out, nil
}

func cloneRows(in []core.Row) []core.Row {
	out := make([]core.Row, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
