package service

import (
	"context"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/repository"
)

// findRecord resolves a record by its id. The repository contract only
// offers scans, so this walks ListAll; newest rows win on (retried,
// duplicated) appends.
func findRecord(ctx context.Context, records repository.RecordRepository, recordID string) (*domain.Record, error) {
	all, err := records.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].RecordID == recordID {
			return &all[i], nil
		}
	}
	return nil, repository.ErrNotFound
}
