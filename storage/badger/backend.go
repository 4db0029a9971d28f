package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/sluice/storage"
)

// maxConflictRetries bounds how often a write transaction is replayed after
// a badger.ErrConflict.
const maxConflictRetries = 3

// ErrNotDirectory is returned when the store path exists but is a file.
var ErrNotDirectory = errors.New("store path is not a directory")

// Backend owns the BadgerDB handle shared by the text store, image store and
// run history.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// BackendOption configures OpenBackend.
type BackendOption func(*backendOptions)

type backendOptions struct {
	logger     *slog.Logger
	syncWrites bool
}

// WithBackendLogger routes badger's own log output through logger.
func WithBackendLogger(logger *slog.Logger) BackendOption {
	return func(o *backendOptions) {
		o.logger = logger
	}
}

// WithSyncWrites makes every commit wait for an fsync.
func WithSyncWrites(sync bool) BackendOption {
	return func(o *backendOptions) {
		o.syncWrites = sync
	}
}

// slogAdapter adapts slog.Logger to the badger.Logger interface. Badger is
// chatty at info level, so info is demoted to debug.
type slogAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) Errorf(msg string, items ...any) {
	a.logger.Error(fmt.Sprintf(msg, items...))
}

func (a *slogAdapter) Warningf(msg string, items ...any) {
	a.logger.Warn(fmt.Sprintf(msg, items...))
}

func (a *slogAdapter) Infof(msg string, items ...any) {
	a.logger.Debug(fmt.Sprintf(msg, items...))
}

func (a *slogAdapter) Debugf(msg string, items ...any) {
	a.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens the content database at dir, creating the directory if
// needed. With inMemory set, dir is ignored and nothing touches disk.
func OpenBackend(dir string, inMemory bool, opts ...BackendOption) (*Backend, error) {
	o := backendOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("component", "badger")

	var dbOpts badger.Options
	if inMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
		dbOpts = badger.DefaultOptions(dir).WithSyncWrites(o.syncWrites)
	}
	dbOpts.Logger = &slogAdapter{logger: logger}
	// Image payloads are already compressed
	dbOpts.Compression = options.None

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	logger.Debug("badger opened", "dir", dir, "in_memory", inMemory)
	return &Backend{db: db, logger: logger}, nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	return nil
}

// Close closes the database. Closing twice returns ErrStorageClosed.
func (b *Backend) Close() error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// view runs fn in a read-only transaction.
func (b *Backend) view(ctx context.Context, fn func(tx *badger.Txn) error) error {
	if err := b.check(ctx); err != nil {
		return err
	}
	return b.db.View(fn)
}

// update runs fn in a read-write transaction and commits it. Transactions
// that lose a write conflict are replayed.
func (b *Backend) update(ctx context.Context, fn func(tx *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err = b.check(ctx); err != nil {
			return err
		}
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		b.logger.Debug("transaction conflict, replaying", "attempt", attempt+1)
	}
	return err
}

func (b *Backend) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}
