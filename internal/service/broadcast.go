package service

import (
	"context"

	"montos-inversion-backend/internal/repository"
)

type broadcastService struct {
	records repository.RecordRepository
}

func NewBroadcastService(records repository.RecordRepository) BroadcastService {
	return &broadcastService{records: records}
}

func (s *broadcastService) Recipients(ctx context.Context) ([]int64, error) {
	all, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(all))
	var recipients []int64
	for _, rec := range all {
		if rec.UserID == 0 || seen[rec.UserID] {
			continue
		}
		seen[rec.UserID] = true
		recipients = append(recipients, rec.UserID)
	}
	return recipients, nil
}
