package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/period"
)

var ErrEmptySelection = errors.New("no transactions selected")

// PeriodStore is the partition storage the ledger runs on.
type PeriodStore interface {
	Resolve(d core.Date) core.PartitionKey
	Check(key core.PartitionKey) error
	Load(ctx context.Context, key core.PartitionKey) period.Snapshot
	Append(ctx context.Context, key core.PartitionKey, row core.Row) error
	DeleteByIndices(ctx context.Context, key core.PartitionKey, indices []int) (int, error)
	Partitions(ctx context.Context) ([]core.PartitionKey, error)
}

// Notifier is told about partitions rewritten by the ledger.
type Notifier interface {
	PublishPartitionChanged(ctx context.Context, key core.PartitionKey, operation string, rows int) error
}

// Entry is a stored transaction with its position in the partition.
type Entry struct {
	Index int `json:"index"`
	core.Transaction
}

// View is what the UI renders for one partition. Warning is non-empty when the
// partition could not be read and the view is empty because of it.
type View struct {
	Key     core.PartitionKey `json:"partition"`
	Entries []Entry           `json:"entries"`
	Skipped int               `json:"skipped"`
	Warning string            `json:"warning,omitempty"`
}

// Transactions returns the entries without their indices.
func (v View) Transactions() []core.Transaction {
	out := make([]core.Transaction, len(v.Entries))
	for i, e := range v.Entries {
		out[i] = e.Transaction
	}
	return out
}

// LedgerService validates submissions and routes them to their partition.
type LedgerService struct {
	store    PeriodStore
	notifier Notifier
	logger   *log.Logger
}

// NewLedgerService builds the service. notifier may be nil.
func NewLedgerService(store PeriodStore, notifier Notifier, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		store:    store,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentLedger),
	}
}

// GetPeriodView loads a partition and normalizes its rows. Rows that cannot be
// read as transactions are counted in Skipped; the others keep their index.
func (s *LedgerService) GetPeriodView(ctx context.Context, key core.PartitionKey) View {
	snap := s.store.Load(ctx, key)
	view := View{Key: key, Entries: make([]Entry, 0, len(snap.Rows))}
	if snap.Err != nil {
		view.Warning = snap.Err.Error()
		return view
	}
	for i, r := range snap.Rows {
		tx, err := core.NormalizeRow(r)
		if err != nil {
			view.Skipped++
			s.logger.DebugContext(ctx, "Skipping unreadable row",
				log.FieldPartition, key.String(),
				"index", i,
				log.FieldError, err)
			continue
		}
		view.Entries = append(view.Entries, Entry{Index: i, Transaction: tx})
	}
	if view.Skipped > 0 {
		s.logger.WarnContext(ctx, "Partition has unreadable rows",
			log.FieldPartition, key.String(),
			"skipped", view.Skipped)
	}
	return view
}

// AddTransaction validates c and appends it to the partition of its own date,
// which may differ from the partition being viewed.
func (s *LedgerService) AddTransaction(ctx context.Context, c core.Candidate) (core.PartitionKey, error) {
	tx, err := core.Validate(c)
	if err != nil {
		s.logger.InfoContext(ctx, "Transaction rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err)
		return "", err
	}
	key := s.store.Resolve(tx.Date)
	if err := s.store.Append(ctx, key, tx.Row()); err != nil {
		return "", fmt.Errorf("add transaction: %w", err)
	}
	fields := log.NewFields().
		WithOperation(log.OpAppend).
		WithPartition(key.String()).
		WithTransaction(tx.Date.String(), string(tx.Type), tx.Category, string(tx.Mode), tx.Amount.String())
	s.logger.InfoContext(ctx, "Transaction recorded", fields.ToSlice()...)
	s.notify(ctx, key, log.OpAppend, 1)
	return key, nil
}

// RemoveTransactions deletes the rows at indices from the partition.
func (s *LedgerService) RemoveTransactions(ctx context.Context, key core.PartitionKey, indices []int) error {
	if len(indices) == 0 {
		return ErrEmptySelection
	}
	removed, err := s.store.DeleteByIndices(ctx, key, indices)
	if err != nil {
		return fmt.Errorf("remove transactions: %w", err)
	}
	if removed > 0 {
		s.notify(ctx, key, log.OpDelete, removed)
	}
	return nil
}

// CheckPeriod reports whether key names a partition of the store's mode.
func (s *LedgerService) CheckPeriod(key core.PartitionKey) error {
	return s.store.Check(key)
}

// CurrentPeriod is the partition a transaction dated now would go to.
func (s *LedgerService) CurrentPeriod(now time.Time) core.PartitionKey {
	return s.store.Resolve(core.DateOf(now))
}

// Periods lists the partitions that can be viewed, newest first, always
// including the current one. A table that cannot enumerate yields only the
// current partition.
func (s *LedgerService) Periods(ctx context.Context, now time.Time) ([]core.PartitionKey, error) {
	current := s.CurrentPeriod(now)
	keys, err := s.store.Partitions(ctx)
	if errors.Is(err, period.ErrNotSupported) {
		return []core.PartitionKey{current}, nil
	}
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if k == current {
			return keys, nil
		}
	}
	keys = append(keys, current)
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
	return keys, nil
}

// Summary filters the view's transactions and aggregates what is left.
func (s *LedgerService) Summary(v View, c Criteria) Report {
	all := v.Transactions()
	from, to, _ := DateBounds(all)
	filtered := Filter(all, c)
	return Report{
		Key:        v.Key,
		Criteria:   c,
		Categories: CategoryOptions(all),
		MinDate:    from,
		MaxDate:    to,
		Count:      len(filtered),
		Summary:    Aggregate(filtered),
		Warning:    v.Warning,
	}
}

func (s *LedgerService) notify(ctx context.Context, key core.PartitionKey, op string, rows int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishPartitionChanged(ctx, key, op, rows); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish partition change",
			log.FieldOperation, log.OpPublish,
			log.FieldPartition, key.String(),
			log.FieldError, err)
	}
}
