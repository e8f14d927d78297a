// Package repo maps the logical entities onto the single-table key scheme
// and provides typed CRUD plus the entity-specific queries the lifecycle
// service composes.
package repo

import (
	"go.uber.org/zap"

	"promptadmin/internal/keyval"
)

// Repos bundles the per-entity repositories over one store.
type Repos struct {
	Users    *Users
	Products *Products
	Projects *Projects
	Versions *Versions
	Grants   *Grants
}

func New(store keyval.Store, log *zap.Logger) *Repos {
	products := &Products{store: store}
	return &Repos{
		Users:    &Users{store: store},
		Products: products,
		Projects: &Projects{store: store, products: products},
		Versions: &Versions{store: store, log: log},
		Grants:   &Grants{store: store},
	}
}
