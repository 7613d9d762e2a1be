package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repositories gives access to every repository bound to one connection
// or transaction.
type Repositories interface {
	Orders() OrderRepository
	OrderDetails() OrderDetailRepository
	Products() ProductRepository
	Variants() VariantRepository
	Categories() CategoryRepository
	Clients() ClientRepository
	Users() UserRepository
	Tickets() TicketRepository
}

// UnitOfWork opens transactions spanning several repositories. Its own
// repositories run outside any transaction.
type UnitOfWork interface {
	Repositories
	Begin(ctx context.Context) (Tx, error)
}

// Tx is an open transaction. Writes made through its repositories are
// executed immediately (so generated ids are available) but only become
// visible to other transactions on Commit.
type Tx interface {
	Repositories
	Commit() error
	Rollback() error
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Orders() OrderRepository             { return NewOrderRepository(s.db) }
func (s *Store) OrderDetails() OrderDetailRepository { return NewOrderDetailRepository(s.db) }
func (s *Store) Products() ProductRepository         { return NewProductRepository(s.db) }
func (s *Store) Variants() VariantRepository         { return NewVariantRepository(s.db) }
func (s *Store) Categories() CategoryRepository      { return NewCategoryRepository(s.db) }
func (s *Store) Clients() ClientRepository           { return NewClientRepository(s.db) }
func (s *Store) Users() UserRepository               { return NewUserRepository(s.db) }
func (s *Store) Tickets() TicketRepository           { return NewTicketRepository(s.db) }

func (s *Store) Begin(ctx context.Context) (Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return &gormTx{db: tx}, nil
}

type gormTx struct {
	db   *gorm.DB
	done bool
}

func (t *gormTx) Orders() OrderRepository             { return NewOrderRepository(t.db) }
func (t *gormTx) OrderDetails() OrderDetailRepository { return NewOrderDetailRepository(t.db) }
func (t *gormTx) Products() ProductRepository         { return NewProductRepository(t.db) }
func (t *gormTx) Variants() VariantRepository         { return NewVariantRepository(t.db) }
func (t *gormTx) Categories() CategoryRepository      { return NewCategoryRepository(t.db) }
func (t *gormTx) Clients() ClientRepository           { return NewClientRepository(t.db) }
func (t *gormTx) Users() UserRepository               { return NewUserRepository(t.db) }
func (t *gormTx) Tickets() TicketRepository           { return NewTicketRepository(t.db) }

func (t *gormTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	return translate(t.db.Commit().Error)
}

// Rollback is a no-op after Commit so it can always be deferred.
func (t *gormTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.db.Rollback().Error
}

// WithinTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise, including on panic.
func WithinTx(ctx context.Context, uow UnitOfWork, fn func(tx Tx) error) (err error) {
	tx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
