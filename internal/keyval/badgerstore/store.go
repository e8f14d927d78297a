// Package badgerstore implements keyval.Store on an embedded BadgerDB.
// It backs local development mode and the test suites, so nothing in the
// service needs network access to exercise the storage contract.
package badgerstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"promptadmin/internal/keyval"
)

type Options struct {
	// Path to the database directory. Empty means in-memory.
	Path     string
	InMemory bool
}

type Store struct {
	db *badger.DB
}

var _ keyval.Store = &Store{}

func New(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, key keyval.Key, out any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(key.Partition, key.Sort))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return keyval.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

func (s *Store) Put(ctx context.Context, key keyval.Key, entity any) error {
	doc, err := marshalDoc(key, entity)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(encodeKey(key.Partition, key.Sort), doc)
	})
}

func (s *Store) Create(ctx context.Context, key keyval.Key, entity any) error {
	doc, err := marshalDoc(key, entity)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		k := encodeKey(key.Partition, key.Sort)
		_, err := txn.Get(k)
		if err == nil {
			return keyval.ErrConditionFailed
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("create: %w", err)
		}
		return txn.Set(k, doc)
	})
}

func (s *Store) Update(ctx context.Context, key keyval.Key, set map[string]any) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return updateInTxn(txn, key, set)
	})
}

func (s *Store) Delete(ctx context.Context, key keyval.Key) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(encodeKey(key.Partition, key.Sort))
	})
}

// ApplyTx runs the whole batch inside one badger transaction.
func (s *Store) ApplyTx(ctx context.Context, ops ...keyval.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			switch a := op.(type) {
			case keyval.PutOp:
				doc, err := marshalDoc(a.Key, a.Entity)
				if err != nil {
					return err
				}
				if err := txn.Set(encodeKey(a.Key.Partition, a.Key.Sort), doc); err != nil {
					return fmt.Errorf("tx put: %w", err)
				}
			case keyval.UpdateOp:
				if err := updateInTxn(txn, a.Key, a.Set); err != nil {
					return err
				}
			case keyval.DeleteOp:
				if err := txn.Delete(encodeKey(a.Key.Partition, a.Key.Sort)); err != nil {
					return fmt.Errorf("tx delete: %w", err)
				}
			default:
				return fmt.Errorf("unknown write op type %T", op)
			}
		}
		return nil
	})
}

func updateInTxn(txn *badger.Txn, key keyval.Key, set map[string]any) error {
	if len(set) == 0 {
		return fmt.Errorf("update requires at least one attribute")
	}
	k := encodeKey(key.Partition, key.Sort)
	item, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return keyval.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update read: %w", err)
	}
	var doc map[string]any
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	}); err != nil {
		return fmt.Errorf("update decode: %w", err)
	}
	for name, value := range set {
		doc[name] = value
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("update encode: %w", err)
	}
	return txn.Set(k, raw)
}

func (s *Store) Query(ctx context.Context, partition string, opts keyval.QueryOptions, out any) error {
	var docs []json.RawMessage
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := partitionPrefix(partition)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			_, sk, err := decodeKey(it.Item().Key())
			if err != nil {
				return err
			}
			if opts.Sort != nil && !sortMatches(opts.Sort, sk) {
				continue
			}
			err = it.Item().Value(func(val []byte) error {
				if len(opts.Filter) > 0 {
					ok, err := filterMatches(opts.Filter, val)
					if err != nil || !ok {
						return err
					}
				}
				docs = append(docs, append(json.RawMessage(nil), val...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	// Badger iterates the partition in ascending sort-key order; reverse
	// here rather than juggling reverse-iterator seek bounds.
	if opts.Descending {
		for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
			docs[i], docs[j] = docs[j], docs[i]
		}
	}
	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}
	return decodeDocs(docs, out)
}

func (s *Store) Scan(ctx context.Context, filter map[string]any, out any) error {
	var docs []json.RawMessage
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				if len(filter) > 0 {
					ok, err := filterMatches(filter, val)
					if err != nil || !ok {
						return err
					}
				}
				docs = append(docs, append(json.RawMessage(nil), val...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return decodeDocs(docs, out)
}

func marshalDoc(key keyval.Key, entity any) ([]byte, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("marshal entity: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("entity must encode to an object: %w", err)
	}
	doc["pk"] = key.Partition
	doc["sk"] = key.Sort
	return json.Marshal(doc)
}

func decodeDocs(docs []json.RawMessage, out any) error {
	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode result set: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode result set: %w", err)
	}
	return nil
}

func sortMatches(sc keyval.SortCondition, sk string) bool {
	op, lo, hi := sc.Condition()
	switch op {
	case keyval.SortEquals:
		return sk == lo
	case keyval.SortBeginsWith:
		return strings.HasPrefix(sk, lo)
	case keyval.SortBetween:
		return sk >= lo && sk <= hi
	case keyval.SortLessThan:
		return sk < lo
	case keyval.SortGreater:
		return sk > lo
	default:
		return false
	}
}

// filterMatches compares attributes by their JSON encoding, which gives
// the same equality semantics for strings, bools and numbers as the
// DynamoDB driver's attribute-equality filter.
func filterMatches(filter map[string]any, val []byte) (bool, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(val, &doc); err != nil {
		return false, fmt.Errorf("decode stored item: %w", err)
	}
	for name, want := range filter {
		got, ok := doc[name]
		if !ok {
			return false, nil
		}
		wantRaw, err := json.Marshal(want)
		if err != nil {
			return false, fmt.Errorf("encode filter value: %w", err)
		}
		if !bytes.Equal(bytes.TrimSpace(got), wantRaw) {
			return false, nil
		}
	}
	return true, nil
}
