// Package bolt persists compiled PolicySets as bbolt snapshots. A snapshot
// holds one bucket per category plus a meta bucket with the denylist version
// and the time it was compiled.
package bolt

import (
	"encoding/binary"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/rr-guard/internal/guard/domain"
)

var (
	bucketMeta  = []byte("meta")
	keyVersion  = []byte("version")
	keyUpdated  = []byte("updated")
	openTimeout = 1 * time.Second
)

// Stats summarizes a snapshot.
type Stats struct {
	Counts      map[string]int
	Version     string
	UpdatedUnix int64
}

// Store is a bbolt-backed PolicySet snapshot.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range bucketNames() {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing snapshot without taking a write lock.
func OpenReadOnly(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RebuildAll atomically replaces the snapshot contents with set.
func (s *Store) RebuildAll(set domain.PolicySet, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range bucketNames() {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		for _, r := range set.Rules() {
			b := tx.Bucket([]byte(r.Category.String()))
			if err := b.Put([]byte(r.Pattern), []byte{1}); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyVersion, []byte(set.Version())); err != nil {
			return err
		}
		ubuf := make([]byte, 8)
		binary.BigEndian.PutUint64(ubuf, uint64(updatedUnix))
		return meta.Put(keyUpdated, ubuf)
	})
}

// Snapshot reads every stored rule back into a PolicySet.
func (s *Store) Snapshot() (domain.PolicySet, error) {
	var (
		version string
		rules   []domain.BlockRule
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return fmt.Errorf("snapshot has no %s bucket", bucketMeta)
		}
		version = string(meta.Get(keyVersion))
		for _, cat := range domain.Categories {
			b := tx.Bucket([]byte(cat.String()))
			if b == nil {
				continue
			}
			if err := b.ForEach(func(k, _ []byte) error {
				rules = append(rules, domain.BlockRule{Pattern: string(k), Category: cat})
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.EmptyPolicySet(), err
	}
	return domain.NewPolicySet(version, rules), nil
}

func (s *Store) Stats() Stats {
	st := Stats{Counts: make(map[string]int, len(domain.Categories))}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		for _, cat := range domain.Categories {
			if b := tx.Bucket([]byte(cat.String())); b != nil {
				st.Counts[cat.String()] = b.Stats().KeyN
			}
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			st.Version = string(b.Get(keyVersion))
			if v := b.Get(keyUpdated); len(v) == 8 {
				st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	return st
}

func bucketNames() [][]byte {
	names := make([][]byte, 0, len(domain.Categories)+1)
	for _, c := range domain.Categories {
		names = append(names, []byte(c.String()))
	}
	return append(names, bucketMeta)
}
