package purchase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	dbgen "github.com/nmarques/backend-compras/internal/db/gen"
)

// Store is the persistence boundary for purchase snapshots. Creation is
// all-or-nothing: the purchase row and every item row commit together or
// not at all.
type Store interface {
	FindByOwnerAndKey(ctx context.Context, owner pgtype.UUID, key string) (dbgen.Purchase, error)
	CreatePurchaseWithItems(ctx context.Context, purchase dbgen.CreatePurchaseParams, items []dbgen.CreatePurchaseItemParams) (dbgen.Purchase, []dbgen.PurchaseItem, error)
	GetForUser(ctx context.Context, id, owner pgtype.UUID) (dbgen.Purchase, error)
	ListItems(ctx context.Context, purchaseID pgtype.UUID) ([]dbgen.PurchaseItem, error)
	List(ctx context.Context, arg dbgen.ListPurchasesForUserParams) ([]dbgen.Purchase, error)
	Count(ctx context.Context, arg dbgen.CountPurchasesForUserParams) (int64, error)
}

// PGStore implements Store over Postgres.
type PGStore struct {
	Q    *dbgen.Queries
	Pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

// FindByOwnerAndKey implements Store.
func (s *PGStore) FindByOwnerAndKey(ctx context.Context, owner pgtype.UUID, key string) (dbgen.Purchase, error) {
	return s.Q.FindPurchaseByOwnerAndKey(ctx, dbgen.FindPurchaseByOwnerAndKeyParams{
		UserID:         owner,
		IdempotencyKey: pgtype.Text{String: key, Valid: true},
	})
}

// CreatePurchaseWithItems inserts the purchase and its items in one
// transaction. The items' PurchaseID is filled in from the inserted row.
func (s *PGStore) CreatePurchaseWithItems(ctx context.Context, purchase dbgen.CreatePurchaseParams, items []dbgen.CreatePurchaseItemParams) (dbgen.Purchase, []dbgen.PurchaseItem, error) {
	if s.Pool == nil {
		return dbgen.Purchase{}, nil, errors.New("purchase store not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return dbgen.Purchase{}, nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)
	row, err := qtx.CreatePurchase(ctx, purchase)
	if err != nil {
		return dbgen.Purchase{}, nil, err
	}
	inserted := make([]dbgen.PurchaseItem, 0, len(items))
	for _, it := range items {
		it.PurchaseID = row.ID
		itemRow, err := qtx.CreatePurchaseItem(ctx, it)
		if err != nil {
			return dbgen.Purchase{}, nil, err
		}
		inserted = append(inserted, itemRow)
	}
	if err := tx.Commit(ctx); err != nil {
		return dbgen.Purchase{}, nil, err
	}
	return row, inserted, nil
}

// GetForUser implements Store.
func (s *PGStore) GetForUser(ctx context.Context, id, owner pgtype.UUID) (dbgen.Purchase, error) {
	return s.Q.GetPurchaseByIDForUser(ctx, dbgen.GetPurchaseByIDForUserParams{ID: id, UserID: owner})
}

// ListItems implements Store.
func (s *PGStore) ListItems(ctx context.Context, purchaseID pgtype.UUID) ([]dbgen.PurchaseItem, error) {
	return s.Q.ListPurchaseItemsByPurchase(ctx, purchaseID)
}

// List implements Store.
func (s *PGStore) List(ctx context.Context, arg dbgen.ListPurchasesForUserParams) ([]dbgen.Purchase, error) {
	return s.Q.ListPurchasesForUser(ctx, arg)
}

// Count implements Store.
func (s *PGStore) Count(ctx context.Context, arg dbgen.CountPurchasesForUserParams) (int64, error) {
	return s.Q.CountPurchasesForUser(ctx, arg)
}
