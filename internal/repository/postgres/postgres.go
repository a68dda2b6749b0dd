package postgres

import (
	"database/sql"

	"montos-inversion-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.RecordRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:               db,
		RecordRepository: NewRecordRepository(db),
	}
}
