package catalog

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultPrimaryKey      = "id"
	DefaultCreatedAtColumn = "created_at"
	DefaultUpdatedAtColumn = "updated_at"
)

var (
	ErrEmptyCatalog   = errors.New("catalog has no tables")
	ErrDuplicateTable = errors.New("table listed more than once")
	ErrUnknownTable   = errors.New("table is not in the catalog")
	ErrAmbiguousTable = errors.New("table name matches more than one catalog entry")
)

// TimestampColumns names the columns an incremental sync filters on
type TimestampColumns struct {
	CreatedAt string `mapstructure:"created_at"`
	UpdatedAt string `mapstructure:"updated_at"`
}

// Catalog is the ordered set of tables the engine replicates.
//
// Tables are listed in foreign-key dependency order: every table appears after
// all the tables it references. A Catalog is immutable once built; callers get
// copies from the accessors.
type Catalog struct {
	tables         []string
	index          map[string]int
	primaryKeys    map[string]string
	timestamps     map[string]TimestampColumns
	sentinels      map[string]string
	deleteSentinel string
}

// Options carries the optional parts of a catalog definition
type Options struct {
	PrimaryKeys      map[string]string
	TimestampColumns map[string]TimestampColumns
	// DeleteSentinel is a primary-key value no real row carries, applied to
	// every table without its own entry in DeleteSentinels. When both are
	// empty a table is cleared with "pk IS NOT NULL".
	DeleteSentinel  string
	DeleteSentinels map[string]string
}

// New builds a catalog from an ordered table list
func New(tables []string, opts Options) (*Catalog, error) {
	if len(tables) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		tables:         make([]string, len(tables)),
		index:          make(map[string]int, len(tables)),
		primaryKeys:    make(map[string]string),
		timestamps:     make(map[string]TimestampColumns),
		sentinels:      make(map[string]string),
		deleteSentinel: opts.DeleteSentinel,
	}
	copy(c.tables, tables)

	for i, name := range c.tables {
		if name == "" {
			return nil, fmt.Errorf("table at position %d has an empty name", i)
		}
		if _, exists := c.index[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, name)
		}
		c.index[name] = i
	}

	for key, pk := range opts.PrimaryKeys {
		table, err := c.resolve(key)
		if err != nil {
			return nil, fmt.Errorf("primary key for %s: %w", key, err)
		}
		if pk != "" {
			c.primaryKeys[table] = pk
		}
	}

	for key, cols := range opts.TimestampColumns {
		table, err := c.resolve(key)
		if err != nil {
			return nil, fmt.Errorf("timestamp columns for %s: %w", key, err)
		}
		c.timestamps[table] = cols
	}

	for key, sentinel := range opts.DeleteSentinels {
		table, err := c.resolve(key)
		if err != nil {
			return nil, fmt.Errorf("delete sentinel for %s: %w", key, err)
		}
		if sentinel != "" {
			c.sentinels[table] = sentinel
		}
	}

	return c, nil
}

// resolve maps an option key to its catalog table. Config loaders lowercase
// map keys, so an exact match wins and otherwise the match is case-insensitive.
func (c *Catalog) resolve(key string) (string, error) {
	if _, ok := c.index[key]; ok {
		return key, nil
	}

	match := ""
	for _, name := range c.tables {
		if !strings.EqualFold(name, key) {
			continue
		}
		if match != "" {
			return "", ErrAmbiguousTable
		}
		match = name
	}
	if match == "" {
		return "", ErrUnknownTable
	}
	return match, nil
}

// MustNew is New for statically known catalogs; it panics on error
func MustNew(tables []string, opts Options) *Catalog {
	c, err := New(tables, opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Tables returns the catalog order
func (c *Catalog) Tables() []string {
	out := make([]string, len(c.tables))
	copy(out, c.tables)
	return out
}

// Reversed returns the catalog order back to front, dependents first
func (c *Catalog) Reversed() []string {
	out := make([]string, len(c.tables))
	for i, name := range c.tables {
		out[len(c.tables)-1-i] = name
	}
	return out
}

// Len returns the number of tables
func (c *Catalog) Len() int {
	return len(c.tables)
}

// Contains reports whether table is part of the catalog
func (c *Catalog) Contains(table string) bool {
	_, ok := c.index[table]
	return ok
}

// Position returns the zero-based catalog position of table, or -1
func (c *Catalog) Position(table string) int {
	if i, ok := c.index[table]; ok {
		return i
	}
	return -1
}

// Head returns the first n tables, or all of them when n exceeds the catalog
func (c *Catalog) Head(n int) []string {
	if n <= 0 || n > len(c.tables) {
		n = len(c.tables)
	}
	out := make([]string, n)
	copy(out, c.tables[:n])
	return out
}

// PrimaryKey returns the primary-key column of table
func (c *Catalog) PrimaryKey(table string) string {
	if pk, ok := c.primaryKeys[table]; ok {
		return pk
	}
	return DefaultPrimaryKey
}

// Timestamps returns the creation/update columns of table
func (c *Catalog) Timestamps(table string) TimestampColumns {
	cols := c.timestamps[table]
	if cols.CreatedAt == "" {
		cols.CreatedAt = DefaultCreatedAtColumn
	}
	if cols.UpdatedAt == "" {
		cols.UpdatedAt = DefaultUpdatedAtColumn
	}
	return cols
}

// DeleteSentinel returns the value used in the "pk <> sentinel" clear filter
// of table. ok is false when table is cleared with "pk IS NOT NULL" instead.
func (c *Catalog) DeleteSentinel(table string) (sentinel string, ok bool) {
	if s, exists := c.sentinels[table]; exists {
		return s, true
	}
	return c.deleteSentinel, c.deleteSentinel != ""
}
