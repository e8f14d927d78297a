// Package keyval defines the single-table key-value store contract the
// rest of the service is written against. Two drivers implement it: dynamo
// (AWS DynamoDB) and badgerstore (embedded BadgerDB for local mode and
// tests).
package keyval

import (
	"context"
	"errors"
)

// Key is the composite primary key of an item. Partition selects the
// logical group, Sort orders and discriminates items within it.
type Key struct {
	Partition string
	Sort      string
}

var (
	// ErrNotFound is returned by Get and Update when no item exists at
	// the requested key.
	ErrNotFound = errors.New("keyval: item not found")
	// ErrConditionFailed is returned by Create when the key already
	// exists. Repositories translate it into their uniqueness result.
	ErrConditionFailed = errors.New("keyval: condition failed")
)

// QueryOptions narrows a partition query.
type QueryOptions struct {
	// Sort restricts the sort-key range. Nil returns the whole partition.
	Sort SortCondition
	// Descending reverses the sort order. Versions rely on this:
	// "latest" is the first item of a descending query.
	Descending bool
	// Filter keeps only items whose attributes equal the given values.
	// Applied after the key-range fetch, so it is not atomic with writes.
	Filter map[string]any
	// Limit caps the number of items returned after filtering. 0 is
	// unlimited.
	Limit int
}

// Store is the storage contract. All writes are atomic per item; reads are
// eventually consistent unless the driver documents otherwise.
type Store interface {
	// Get loads the item at key into out (a struct pointer).
	Get(ctx context.Context, key Key, out any) error
	// Put unconditionally writes the item at key.
	Put(ctx context.Context, key Key, entity any) error
	// Create writes the item only if the key does not exist yet.
	Create(ctx context.Context, key Key, entity any) error
	// Update sets the given attributes on an existing item.
	Update(ctx context.Context, key Key, set map[string]any) error
	// Delete removes the item. Deleting an absent key is not an error.
	Delete(ctx context.Context, key Key) error
	// Query loads all items under a partition into out (a pointer to a
	// slice of structs), subject to opts.
	Query(ctx context.Context, partition string, opts QueryOptions, out any) error
	// Scan loads every item whose attributes equal filter into out.
	Scan(ctx context.Context, filter map[string]any, out any) error
	// ApplyTx applies the write ops as a single atomic batch.
	ApplyTx(ctx context.Context, ops ...WriteOp) error
	// Close releases driver resources.
	Close() error
}

// WriteOp is one member of an ApplyTx batch.
type WriteOp interface {
	writeOp()
}

type PutOp struct {
	Key    Key
	Entity any
}

type UpdateOp struct {
	Key Key
	Set map[string]any
}

type DeleteOp struct {
	Key Key
}

func (PutOp) writeOp()    {}
func (UpdateOp) writeOp() {}
func (DeleteOp) writeOp() {}
