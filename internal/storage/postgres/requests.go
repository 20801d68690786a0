package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
)

// extraColumns selects the kind-specific column of each request table.
var extraColumns = map[models.RequestKind]string{
	models.KindDeposit:    `COALESCE(proof_url, '')`,
	models.KindWithdrawal: `transaction_details`,
	models.KindSending:    `recipient_id`,
}

func requestTable(kind models.RequestKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown request kind %q", kind)
	}
	return kind.Table(), nil
}

// CreateRequest inserts a pending request row.
func (s *Store) CreateRequest(ctx context.Context, req models.Request) (models.Request, error) {
	table, err := requestTable(req.Kind)
	if err != nil {
		return models.Request{}, err
	}

	var (
		extraCol string
		extraVal any
	)
	switch req.Kind {
	case models.KindDeposit:
		extraCol, extraVal = "proof_url", nullIfEmpty(req.ProofURL)
	case models.KindWithdrawal:
		extraCol = "transaction_details"
		if req.TransactionDetails != nil {
			raw, err := json.Marshal(req.TransactionDetails)
			if err != nil {
				return models.Request{}, fmt.Errorf("encode transaction details: %w", err)
			}
			extraVal = raw
		}
	case models.KindSending:
		if req.RecipientID == nil {
			return models.Request{}, fmt.Errorf("sending request requires a recipient")
		}
		extraCol, extraVal = "recipient_id", *req.RecipientID
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, amount, %s)
		VALUES ($1, $2::numeric, $3)
		RETURNING id, user_id, amount::text, status, COALESCE(rejection_reason, ''), created_at, updated_at, %s;`,
		table, extraCol, extraColumns[req.Kind])
	row := s.pool.QueryRow(ctx, query, req.UserID, req.Amount.String(), extraVal)
	return scanRequest(req.Kind, row)
}

// ListRequests returns every row of one request table, newest first.
func (s *Store) ListRequests(ctx context.Context, kind models.RequestKind) ([]models.Request, error) {
	table, err := requestTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT id, user_id, amount::text, status, COALESCE(rejection_reason, ''), created_at, updated_at, %s
		FROM %s
		ORDER BY created_at DESC;`, extraColumns[kind], table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.Request
	for rows.Next() {
		req, err := scanRequest(kind, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// UpdateRequest applies an admin decision to one request row.
func (s *Store) UpdateRequest(ctx context.Context, kind models.RequestKind, id uuid.UUID, update storage.RequestUpdate) error {
	table, err := requestTable(kind)
	if err != nil {
		return err
	}

	sets := []string{"status = $2", "updated_at = NOW()"}
	args := []any{id, string(update.Status)}
	if update.RejectionReason != nil {
		args = append(args, *update.RejectionReason)
		sets = append(sets, fmt.Sprintf("rejection_reason = $%d", len(args)))
	}
	if update.TransactionDetails != nil {
		if kind != models.KindWithdrawal {
			return fmt.Errorf("transaction details apply to withdrawals only")
		}
		raw, err := json.Marshal(update.TransactionDetails)
		if err != nil {
			return fmt.Errorf("encode transaction details: %w", err)
		}
		args = append(args, raw)
		sets = append(sets, fmt.Sprintf("transaction_details = $%d", len(args)))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1;`, table, strings.Join(sets, ", "))
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountRequests counts rows of one request table in the given status.
func (s *Store) CountRequests(ctx context.Context, kind models.RequestKind, status models.Status) (int, error) {
	table, err := requestTable(kind)
	if err != nil {
		return 0, err
	}
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE status = $1;`, table)
	if err := s.pool.QueryRow(ctx, query, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func scanRequest(kind models.RequestKind, row pgx.Row) (models.Request, error) {
	req := models.Request{Kind: kind}
	var amount, status string
	dest := []any{&req.ID, &req.UserID, &amount, &status, &req.RejectionReason, &req.CreatedAt, &req.UpdatedAt}

	var (
		details   []byte
		recipient uuid.UUID
	)
	switch kind {
	case models.KindDeposit:
		dest = append(dest, &req.ProofURL)
	case models.KindWithdrawal:
		dest = append(dest, &details)
	case models.KindSending:
		dest = append(dest, &recipient)
	}

	if err := row.Scan(dest...); err != nil {
		return models.Request{}, notFound(err)
	}
	req.Amount = parseAmount(amount)
	req.Status = models.ParseStatus(status)

	switch kind {
	case models.KindWithdrawal:
		if len(details) > 0 {
			var td models.TransactionDetails
			if err := json.Unmarshal(details, &td); err != nil {
				return models.Request{}, fmt.Errorf("decode transaction details: %w", err)
			}
			req.TransactionDetails = &td
		}
	case models.KindSending:
		req.RecipientID = &recipient
	}
	return req, nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
