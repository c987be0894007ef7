package basin

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/maseology/mmio"
)

// ErrNotFound is returned by a Store holding no record for an id.
var ErrNotFound = errors.New("record not found")

// Store persists whole basin records keyed by pour-point id. Put replaces any
// earlier record atomically.
type Store interface {
	Has(id int) bool
	Put(r *Record) error
	Get(id int) (*Record, error)
	IDs() ([]int, error)
	Close() error
}

// OpenStore opens the store named by c; nil for StoreNone.
func OpenStore(c StoreConfig) (Store, error) {
	switch c.Kind {
	case StoreGob:
		s, err := NewGobStore(c.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case StoreSQLite:
		s, err := OpenSQLite(c.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case StoreNone, "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown store kind %q", c.Kind)
}

// GobStore keeps one <id>.gob file per basin in a directory.
type GobStore struct {
	dir string
}

// NewGobStore opens (creating when needed) a gob record directory.
func NewGobStore(dir string) (*GobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewGobStore: %w", err)
	}
	return &GobStore{dir: dir}, nil
}

func (s *GobStore) fp(id int) string {
	return filepath.Join(s.dir, strconv.Itoa(id)+".gob")
}

func (s *GobStore) Has(id int) bool {
	_, ok := mmio.FileExists(s.fp(id))
	return ok
}

// Put writes r to a temporary file then renames it over <id>.gob.
func (s *GobStore) Put(r *Record) error {
	f, err := os.CreateTemp(s.dir, ".rec-*")
	if err != nil {
		return fmt.Errorf("GobStore.Put %d: %w", r.ID, err)
	}
	tmp := f.Name()
	if err := gob.NewEncoder(f).Encode(r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("GobStore.Put %d: %w", r.ID, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("GobStore.Put %d: %w", r.ID, err)
	}
	if err := os.Rename(tmp, s.fp(r.ID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("GobStore.Put %d: %w", r.ID, err)
	}
	return nil
}

func (s *GobStore) Get(id int) (*Record, error) {
	f, err := os.Open(s.fp(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("basin %d: %w", id, ErrNotFound)
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	var r Record
	if err := gob.NewDecoder(f).Decode(&r); err != nil {
		return nil, fmt.Errorf("GobStore.Get %d: %w", id, err)
	}
	return &r, nil
}

// IDs lists stored ids in ascending order.
func (s *GobStore) IDs() ([]int, error) {
	des, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	ids := []int{}
	for _, de := range des {
		n, ok := strings.CutSuffix(de.Name(), ".gob")
		if !ok || de.IsDir() {
			continue
		}
		if id, err := strconv.Atoi(n); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *GobStore) Close() error { return nil }
