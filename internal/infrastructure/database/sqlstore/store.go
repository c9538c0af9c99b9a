package sqlstore

import (
	"errors"

	"gorm.io/gorm"
)

// Store hands out the gorm-backed repositories
type Store struct {
	db *gorm.DB
}

// New creates a store over an open connection
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Products() *ProductRepository    { return &ProductRepository{db: s.db} }
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{db: s.db} }
func (s *Store) Carts() *CartRepository          { return &CartRepository{db: s.db} }
func (s *Store) Orders() *OrderStore             { return &OrderStore{db: s.db} }
func (s *Store) Users() *UserRepository          { return &UserRepository{db: s.db} }
func (s *Store) Notices() *NoticeRepository      { return &NoticeRepository{db: s.db} }
func (s *Store) Stats() *StatsStore              { return &StatsStore{db: s.db} }

// translate maps gorm sentinels onto domain errors
func translate(err error, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case duplicate != nil && errors.Is(err, gorm.ErrDuplicatedKey):
		return duplicate
	}
	return err
}
