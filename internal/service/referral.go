package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/repository"
)

// mintAttempts bounds the collision-retry loop. The code space is four
// digits; running out of attempts means the store is effectively full or
// unreachable.
const mintAttempts = 25

type referralService struct {
	records repository.RecordRepository

	// reserved holds codes handed out by this process that may not be
	// persisted yet, so two concurrent mints can never return the same
	// draw. Collisions with codes persisted elsewhere are still caught by
	// the store lookup and healed by retrying.
	mu       sync.Mutex
	reserved map[string]bool

	randInt func(n int) int
}

func NewReferralService(records repository.RecordRepository) ReferralService {
	return &referralService{
		records:  records,
		reserved: make(map[string]bool),
		randInt:  rand.Intn,
	}
}

func (s *referralService) Mint(ctx context.Context) (string, error) {
	for attempt := 0; attempt < mintAttempts; attempt++ {
		code := fmt.Sprintf("%d", 1000+s.randInt(9000))
		if !s.reserve(code) {
			continue
		}
		_, err := s.records.FindByAssignedCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			s.release(code)
			return "", fmt.Errorf("failed to check code collision: %w", err)
		}
		// Code already assigned to a record. Keep it reserved so we never
		// draw it again, and try another.
	}
	return "", fmt.Errorf("exhausted %d attempts minting a unique code", mintAttempts)
}

func (s *referralService) Validate(ctx context.Context, code string) (*domain.Record, error) {
	return s.records.FindByAssignedCode(ctx, code)
}

func (s *referralService) ListReferrals(ctx context.Context, code string) ([]domain.Record, error) {
	if code == "" || code == domain.NoReferral {
		return nil, nil
	}
	all, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var referred []domain.Record
	for _, rec := range all {
		if rec.ReferralCode == code {
			referred = append(referred, rec)
		}
	}
	return referred, nil
}

func (s *referralService) reserve(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserved[code] {
		return false
	}
	s.reserved[code] = true
	return true
}

func (s *referralService) release(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, code)
}
