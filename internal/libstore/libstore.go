// Package libstore persists library symbols in a bolt database so several
// imports can share one symbol library.
package libstore

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/OpenTraceLab/csa2kicad/pkg/kicad/schematic"
)

// ErrNotFound is returned by Get for a name the store does not hold.
var ErrNotFound = errors.New("symbol not found")

var symbolsBucket = []byte("symbols")

// Store is a bolt-backed symbol library. It implements
// schematic.SymbolStore.
type Store struct {
	db *bolt.DB
}

var _ schematic.SymbolStore = (*Store)(nil)

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open library store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(symbolsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise library store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func marshal(v any) ([]byte, error) {
	b := new(bytes.Buffer)
	if err := gob.NewEncoder(b).Encode(v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Put stores sym under its name, replacing any earlier version.
func (s *Store) Put(sym *schematic.LibSymbol) error {
	data, err := marshal(sym)
	if err != nil {
		return fmt.Errorf("failed to encode symbol %q: %w", sym.Name, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(symbolsBucket).Put([]byte(sym.Name), data)
	})
}

// Get loads the symbol with the given name.
func (s *Store) Get(name string) (*schematic.LibSymbol, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(symbolsBucket).Get([]byte(name))
		if v == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		// v is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sym := &schematic.LibSymbol{}
	if err := unmarshal(data, sym); err != nil {
		return nil, fmt.Errorf("failed to decode symbol %q: %w", name, err)
	}
	return sym, nil
}

// Names lists the stored symbol names in byte order.
func (s *Store) Names() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(symbolsBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Len returns the number of stored symbols.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(symbolsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Library loads every stored symbol into a new library.
func (s *Store) Library(name string) (*schematic.Library, error) {
	names, err := s.Names()
	if err != nil {
		return nil, err
	}
	lib := schematic.NewLibrary(name)
	for _, n := range names {
		sym, err := s.Get(n)
		if err != nil {
			return nil, err
		}
		if err := lib.Add(sym); err != nil {
			return nil, err
		}
	}
	return lib, nil
}
