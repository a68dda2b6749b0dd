package sheets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/repository"
)

// Column layout of the backing worksheet. The header is fixed; every row is
// one record snapshot. Re-investments append rows, they never widen the
// schema.
var header = []any{
	"RecordID", "UserID", "Name", "NationalID", "Amount", "ReferralCode",
	"AssignedCode", "CreatedAt", "ExpectedPayoutDate", "ProofReference",
	"Status", "ReviewerNote", "NudgedAt",
}

const (
	headerRange = "A1:M1"
	dataRange   = "A2:M"
	numColumns  = 13
)

// Store is a RecordRepository over a single Google Sheets worksheet. There
// are no indexes; every lookup is a linear scan over the full range, which
// is acceptable behind the repository interface at this system's scale.
type Store struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// NewStore builds the Sheets client from service-account credentials and
// writes the header row if the worksheet is still blank.
func NewStore(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*Store, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	s := &Store{svc: svc, spreadsheetID: spreadsheetID}
	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureHeader(ctx context.Context) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: read header: %v", repository.ErrStoreUnavailable, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) >= numColumns {
		return nil
	}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, headerRange,
		&sheetsapi.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: write header: %v", repository.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, rec *domain.Record) (string, error) {
	if rec.RecordID == "" {
		rec.RecordID = uuid.NewString()
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, dataRange,
		&sheetsapi.ValueRange{Values: [][]any{recordToRow(rec)}}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: append row: %v", repository.ErrStoreUnavailable, err)
	}
	return rec.RecordID, nil
}

func (s *Store) FindLatestByUser(ctx context.Context, userID int64) (*domain.Record, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return nil, err
	}
	// Rows are in append order; the last match is the latest record.
	for i := len(rows) - 1; i >= 0; i-- {
		rec := rowToRecord(rows[i])
		if rec.UserID == userID {
			return rec, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) FindByAssignedCode(ctx context.Context, code string) (*domain.Record, error) {
	if code == "" {
		return nil, repository.ErrNotFound
	}
	rows, err := s.readRows(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(rows) - 1; i >= 0; i-- {
		rec := rowToRecord(rows[i])
		if rec.AssignedCode == code {
			return rec, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) UpdateFields(ctx context.Context, recordID string, upd repository.RecordUpdate) (bool, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return false, err
	}
	for i := len(rows) - 1; i >= 0; i-- {
		rec := rowToRecord(rows[i])
		if rec.RecordID != recordID {
			continue
		}
		if upd.ProofReference != nil {
			rec.ProofReference = *upd.ProofReference
		}
		if upd.Status != nil {
			rec.Status = *upd.Status
		}
		if upd.AssignedCode != nil {
			rec.AssignedCode = *upd.AssignedCode
		}
		if upd.ReviewerNote != nil {
			rec.ReviewerNote = *upd.ReviewerNote
		}
		if upd.NudgedAt != nil {
			rec.NudgedAt = *upd.NudgedAt
		}
		// Data rows start at sheet row 2.
		rowRange := fmt.Sprintf("A%d:M%d", i+2, i+2)
		_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rowRange,
			&sheetsapi.ValueRange{Values: [][]any{recordToRow(rec)}}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return false, fmt.Errorf("%w: update row: %v", repository.ErrStoreUnavailable, err)
		}
		return true, nil
	}
	return false, nil
}

func (s *Store) ListAll(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, *rowToRecord(row))
	}
	return records, nil
}

func (s *Store) readRows(ctx context.Context) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, dataRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", repository.ErrStoreUnavailable, err)
	}
	return resp.Values, nil
}

func recordToRow(rec *domain.Record) []any {
	return []any{
		rec.RecordID,
		strconv.FormatInt(rec.UserID, 10),
		rec.Name,
		rec.NationalID,
		strconv.FormatInt(rec.Amount, 10),
		rec.ReferralCode,
		rec.AssignedCode,
		rec.CreatedAt.Format(time.RFC3339),
		rec.ExpectedPayoutDate.Format(time.RFC3339),
		rec.ProofReference,
		string(rec.Status),
		rec.ReviewerNote,
		formatTime(rec.NudgedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func rowToRecord(row []any) *domain.Record {
	rec := &domain.Record{
		RecordID:       cell(row, 0),
		Name:           cell(row, 2),
		NationalID:     cell(row, 3),
		ReferralCode:   cell(row, 5),
		AssignedCode:   cell(row, 6),
		ProofReference: cell(row, 9),
		Status:         domain.RecordStatus(cell(row, 10)),
		ReviewerNote:   cell(row, 11),
	}
	rec.UserID, _ = strconv.ParseInt(cell(row, 1), 10, 64)
	rec.Amount, _ = strconv.ParseInt(cell(row, 4), 10, 64)
	rec.CreatedAt, _ = time.Parse(time.RFC3339, cell(row, 7))
	rec.ExpectedPayoutDate, _ = time.Parse(time.RFC3339, cell(row, 8))
	rec.NudgedAt, _ = time.Parse(time.RFC3339, cell(row, 12))
	return rec
}

func cell(row []any, idx int) string {
	if idx >= len(row) {
		return ""
	}
	s, _ := row[idx].(string)
	return s
}
