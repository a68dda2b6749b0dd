package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/repository"
)

type recordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) repository.RecordRepository {
	return &recordRepository{db: db}
}

const recordColumns = `record_id, user_id, name, national_id, amount, referral_code, assigned_code, created_at, expected_payout_date, proof_reference, status, reviewer_note, nudged_at`

func (r *recordRepository) Append(ctx context.Context, rec *domain.Record) (string, error) {
	if rec.RecordID == "" {
		rec.RecordID = uuid.NewString()
	}
	query := `INSERT INTO investment_records (` + recordColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(ctx, query,
		rec.RecordID, rec.UserID, rec.Name, rec.NationalID, rec.Amount,
		rec.ReferralCode, nullable(rec.AssignedCode), rec.CreatedAt,
		rec.ExpectedPayoutDate, rec.ProofReference, rec.Status, rec.ReviewerNote,
		nullableTime(rec.NudgedAt))
	if err != nil {
		return "", fmt.Errorf("%w: insert record: %v", repository.ErrStoreUnavailable, err)
	}
	return rec.RecordID, nil
}

func (r *recordRepository) FindLatestByUser(ctx context.Context, userID int64) (*domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM investment_records
	          WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID))
}

func (r *recordRepository) FindByAssignedCode(ctx context.Context, code string) (*domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM investment_records
	          WHERE assigned_code = $1 ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, code))
}

func (r *recordRepository) UpdateFields(ctx context.Context, recordID string, upd repository.RecordUpdate) (bool, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	add := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.ProofReference != nil {
		add("proof_reference", *upd.ProofReference)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.AssignedCode != nil {
		add("assigned_code", *upd.AssignedCode)
	}
	if upd.ReviewerNote != nil {
		add("reviewer_note", *upd.ReviewerNote)
	}
	if upd.NudgedAt != nil {
		add("nudged_at", nullableTime(*upd.NudgedAt))
	}
	if len(sets) == 0 {
		return true, nil
	}

	args = append(args, recordID)
	query := fmt.Sprintf("UPDATE investment_records SET %s WHERE record_id = $%d",
		strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: update record: %v", repository.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: update record: %v", repository.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

func (r *recordRepository) ListAll(ctx context.Context) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM investment_records ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list records: %v", repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: scan record: %v", repository.ErrStoreUnavailable, err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list records: %v", repository.ErrStoreUnavailable, err)
	}
	return records, nil
}

func (r *recordRepository) scanOne(row *sql.Row) (*domain.Record, error) {
	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query record: %v", repository.ErrStoreUnavailable, err)
	}
	return rec, nil
}

func scanRecord(scan func(dest ...any) error) (*domain.Record, error) {
	rec := &domain.Record{}
	var assigned sql.NullString
	var nudged sql.NullTime
	err := scan(&rec.RecordID, &rec.UserID, &rec.Name, &rec.NationalID,
		&rec.Amount, &rec.ReferralCode, &assigned, &rec.CreatedAt,
		&rec.ExpectedPayoutDate, &rec.ProofReference, &rec.Status, &rec.ReviewerNote,
		&nudged)
	if err != nil {
		return nil, err
	}
	rec.AssignedCode = assigned.String
	rec.NudgedAt = nudged.Time
	return rec, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
