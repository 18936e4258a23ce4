package accounts

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"nhbrepay/storage"
)

const snapshotPrefix = "acct:"

var (
	// ErrUnknownKind is returned when no parser is registered for a kind.
	ErrUnknownKind = errors.New("accounts: unknown account kind")
	// ErrInvalidID is returned for blank account identifiers.
	ErrInvalidID = errors.New("accounts: account id required")
)

// Parser decodes the raw payload of one account kind.
type Parser func(raw []byte) (any, error)

// ParsedAccount is a cached account together with its decoded form.
type ParsedAccount struct {
	ID   string
	Kind string
	Info any
	Raw  []byte
}

// Cache is the process-wide read cache of parsed accounts. Lookups never
// block on the network; callers treat a miss as "not loaded yet". It is safe
// for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	accounts map[string]*ParsedAccount
	byKind   map[string]map[string]struct{}
	parsers  map[string]Parser
	store    storage.Database
	logger   *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore persists every added account so a later process can warm start.
func WithStore(db storage.Database) Option {
	return func(c *Cache) { c.store = db }
}

// WithLogger overrides the logger used for snapshot diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCache constructs an empty cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		accounts: make(map[string]*ParsedAccount),
		byKind:   make(map[string]map[string]struct{}),
		parsers:  make(map[string]Parser),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterParser installs the decoder for kind, replacing any previous one.
func (c *Cache) RegisterParser(kind string, parser Parser) {
	if c == nil || parser == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parsers[strings.TrimSpace(kind)] = parser
}

// RegisterParsers installs several decoders at once.
func (c *Cache) RegisterParsers(parsers map[string]func([]byte) (any, error)) {
	for kind, parser := range parsers {
		c.RegisterParser(kind, parser)
	}
}

// Add parses raw with the kind's parser and stores the result, replacing any
// previous entry for id.
func (c *Cache) Add(id, kind string, raw []byte) (*ParsedAccount, error) {
	account, err := c.parse(id, kind, raw)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.insertLocked(account)
	store := c.store
	c.mu.Unlock()

	if store != nil {
		if err := store.Put(snapshotKey(account.Kind, account.ID), account.Raw); err != nil {
			return account, fmt.Errorf("accounts: persist %s: %w", account.ID, err)
		}
	}
	return account, nil
}

// Get returns the cached account for id.
func (c *Cache) Get(id string) (*ParsedAccount, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	account, ok := c.accounts[strings.TrimSpace(id)]
	return account, ok
}

// ByParser lists the ids of every cached account of kind, sorted.
func (c *Cache) ByParser(kind string) []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.byKind[kind]))
	for id := range c.byKind[kind] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of cached accounts.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.accounts)
}

// Warm reloads the accounts persisted by a previous process. Entries whose
// kind has no parser, or that no longer parse, are skipped and logged.
func (c *Cache) Warm() (int, error) {
	if c == nil || c.store == nil {
		return 0, nil
	}
	loaded := 0
	err := c.store.Iterate([]byte(snapshotPrefix), func(key, value []byte) error {
		kind, id, ok := splitSnapshotKey(key)
		if !ok {
			return nil
		}
		account, err := c.parse(id, kind, value)
		if err != nil {
			c.logger.Warn("skipping cached account", "kind", kind, "id", id, "error", err)
			return nil
		}
		c.mu.Lock()
		c.insertLocked(account)
		c.mu.Unlock()
		loaded++
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("accounts: warm cache: %w", err)
	}
	return loaded, nil
}

// Lookup returns the decoded info for id when it is cached with type T.
func Lookup[T any](c *Cache, id string) (T, bool) {
	var zero T
	account, ok := c.Get(id)
	if !ok || account == nil {
		return zero, false
	}
	info, ok := account.Info.(T)
	return info, ok
}

// All returns the decoded info of every cached account of kind with type T.
func All[T any](c *Cache, kind string) []T {
	ids := c.ByParser(kind)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if info, ok := Lookup[T](c, id); ok {
			out = append(out, info)
		}
	}
	return out
}

func (c *Cache) parse(id, kind string, raw []byte) (*ParsedAccount, error) {
	if c == nil {
		return nil, errors.New("accounts: cache not initialised")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}
	c.mu.RLock()
	parser, ok := c.parsers[kind]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	info, err := parser(raw)
	if err != nil {
		return nil, fmt.Errorf("accounts: parse %s %s: %w", kind, id, err)
	}
	return &ParsedAccount{ID: id, Kind: kind, Info: info, Raw: append([]byte(nil), raw...)}, nil
}

func (c *Cache) insertLocked(account *ParsedAccount) {
	if previous, ok := c.accounts[account.ID]; ok && previous.Kind != account.Kind {
		delete(c.byKind[previous.Kind], account.ID)
	}
	c.accounts[account.ID] = account
	ids, ok := c.byKind[account.Kind]
	if !ok {
		ids = make(map[string]struct{})
		c.byKind[account.Kind] = ids
	}
	ids[account.ID] = struct{}{}
}

func snapshotKey(kind, id string) []byte {
	return []byte(snapshotPrefix + kind + ":" + id)
}

func splitSnapshotKey(key []byte) (string, string, bool) {
	rest := strings.TrimPrefix(string(key), snapshotPrefix)
	kind, id, found := strings.Cut(rest, ":")
	if !found || kind == "" || id == "" {
		return "", "", false
	}
	return kind, id, true
}
