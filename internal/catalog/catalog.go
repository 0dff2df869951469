package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	pebblestore "github.com/rzbill/lodge/internal/storage/pebble"
	"github.com/rzbill/lodge/pkg/log"
	"github.com/rzbill/lodge/pkg/logstore"
)

// ErrNotFound is returned when no session matches a lookup.
var ErrNotFound = errors.New("catalog: session not found")

// Session is the catalog record of one Store lifetime.
type Session struct {
	ID          string    `json:"id"`
	Dir         string    `json:"dir"`
	File        string    `json:"file"`
	Started     time.Time `json:"started"`
	Closed      time.Time `json:"closed,omitempty"`
	Lines       uint64    `json:"lines"`
	Bytes       uint64    `json:"bytes"`
	Flushes     uint64    `json:"flushes"`
	WriteErrors uint64    `json:"writeErrors"`
	Removed     bool      `json:"removed"`
	RemovedAt   time.Time `json:"removedAt,omitempty"`
}

// Open reports whether the session's store has not been closed.
func (s Session) Open() bool { return s.Closed.IsZero() }

// Options configures a Catalog.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	Logger  log.Logger
	// Now overrides the clock used for close and removal times.
	Now func() time.Time
}

// Catalog persists session records in Pebble. It implements
// logstore.Observer so a Store can feed it directly.
type Catalog struct {
	db     *pebblestore.DB
	logger log.Logger
	now    func() time.Time

	mu     sync.Mutex
	active map[string]*Session // by log file path
}

var _ logstore.Observer = (*Catalog)(nil)

// Open opens or creates the catalog database.
func Open(opts Options) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NewNullOutput()))
	}
	logger = logger.WithComponent("catalog")
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir: opts.DataDir,
		Fsync:   opts.Fsync,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", opts.DataDir, err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Catalog{db: db, logger: logger, now: now, active: make(map[string]*Session)}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// DB exposes the underlying database for health checks.
func (c *Catalog) DB() *pebblestore.DB { return c.db }

// OnOpen records a new session for file.
func (c *Catalog) OnOpen(file string, started time.Time) {
	s := &Session{
		ID:      uuid.NewString(),
		Dir:     filepath.Dir(file),
		File:    file,
		Started: started.UTC(),
	}
	c.mu.Lock()
	c.active[file] = s
	snapshot := *s
	c.mu.Unlock()

	if err := c.put(snapshot, true); err != nil {
		c.logger.Error("record session failed", log.Err(err), log.Str("file", file))
	}
}

// OnFlush adds a flush to the session of file.
func (c *Catalog) OnFlush(file string, lines, bytes int, err error) {
	c.update(file, func(s *Session) {
		if err != nil {
			s.WriteErrors++
			return
		}
		s.Flushes++
		s.Lines += uint64(lines)
		s.Bytes += uint64(bytes)
	})
}

// OnClose marks the session of file closed.
func (c *Catalog) OnClose(file string, _ logstore.Stats) {
	c.update(file, func(s *Session) { s.Closed = c.now().UTC() })
	c.mu.Lock()
	delete(c.active, file)
	c.mu.Unlock()
}

// OnRemove marks the session owning file as removed by rotation. Files with no
// recorded session are ignored.
func (c *Catalog) OnRemove(file string, err error) {
	if err != nil {
		return
	}
	s, lookupErr := c.ByFile(file)
	if errors.Is(lookupErr, ErrNotFound) {
		return
	}
	if lookupErr != nil {
		c.logger.Error("lookup session failed", log.Err(lookupErr), log.Str("file", file))
		return
	}
	s.Removed = true
	s.RemovedAt = c.now().UTC()
	if err := c.put(s, false); err != nil {
		c.logger.Error("mark session removed failed", log.Err(err), log.Str("file", file))
	}
}

func (c *Catalog) update(file string, fn func(*Session)) {
	c.mu.Lock()
	s, ok := c.active[file]
	if !ok {
		c.mu.Unlock()
		return
	}
	fn(s)
	snapshot := *s
	c.mu.Unlock()

	if err := c.put(snapshot, false); err != nil {
		c.logger.Error("update session failed", log.Err(err), log.Str("file", file))
	}
}

func (c *Catalog) put(s Session, index bool) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	key := KeySession(s.Dir, s.Started.UnixNano(), s.ID)
	if !index {
		return c.db.Set(key, EncodeRecord([]byte{recordVersion}, payload))
	}
	b := c.db.NewBatch()
	defer b.Close()
	if err := b.Set(key, EncodeRecord([]byte{recordVersion}, payload), nil); err != nil {
		return err
	}
	if err := b.Set(KeyFile(s.File), key, nil); err != nil {
		return err
	}
	return c.db.CommitBatch(context.Background(), b)
}

func decodeSession(v []byte) (Session, error) {
	rec, ok := DecodeRecord(v)
	if !ok {
		return Session{}, errors.New("catalog: corrupt record")
	}
	if len(rec.Header) != 1 || rec.Header[0] != recordVersion {
		return Session{}, fmt.Errorf("catalog: unsupported record version %v", rec.Header)
	}
	var s Session
	if err := json.Unmarshal(rec.Payload, &s); err != nil {
		return Session{}, fmt.Errorf("catalog: decode session: %w", err)
	}
	return s, nil
}

// ByFile returns the session that wrote the given log file.
func (c *Catalog) ByFile(file string) (Session, error) {
	key, err := c.db.Get(KeyFile(file))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	v, err := c.db.Get(key)
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return decodeSession(v)
}

// ListOptions filters List.
type ListOptions struct {
	// Dir restricts results to one storage directory. Empty means all.
	Dir string
	// Limit caps the number of sessions returned. Zero means no limit.
	Limit int
	// IncludeRemoved also returns sessions whose file was rotated away.
	IncludeRemoved bool
}

// List returns sessions newest first within each directory.
func (c *Catalog) List(opts ListOptions) ([]Session, error) {
	prefix := KeyAllSessionsPrefix()
	if opts.Dir != "" {
		prefix = KeySessionPrefix(opts.Dir)
	}
	var (
		out     []Session
		scanErr error
	)
	err := c.db.ScanPrefix(prefix, true, func(_, v []byte) bool {
		s, err := decodeSession(v)
		if err != nil {
			scanErr = err
			return false
		}
		if s.Removed && !opts.IncludeRemoved {
			return true
		}
		out = append(out, s)
		return opts.Limit <= 0 || len(out) < opts.Limit
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return out, nil
}
