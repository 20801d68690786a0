package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Lazitesema/cashora-landing-haven/internal/models"
	"github.com/Lazitesema/cashora-landing-haven/internal/storage"
)

const profileColumns = `p.id, COALESCE(p.first_name, ''), COALESCE(p.last_name, ''), p.username,
	p.date_of_birth, COALESCE(p.place_of_birth, ''), COALESCE(p.residence, ''), COALESCE(p.nationality, ''),
	COALESCE(p.id_card_url, ''), p.role, p.status, p.balance::text,
	p.withdrawal_fee_type, p.withdrawal_fee_value::text, p.sending_fee_type, p.sending_fee_value::text,
	p.created_at, p.updated_at`

// CreateIdentity inserts an auth identity and its pending profile in one transaction.
func (s *Store) CreateIdentity(ctx context.Context, identity models.Identity, meta models.SignUpMetadata) (models.Identity, error) {
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return models.Identity{}, fmt.Errorf("encode metadata: %w", err)
	}

	var created models.Identity
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		const insertIdentity = `
			INSERT INTO auth_users (email, password_hash, raw_user_meta_data)
			VALUES ($1, $2, $3)
			RETURNING id, email, password_hash, created_at;`
		row := tx.QueryRow(ctx, insertIdentity, identity.Email, identity.PasswordHash, rawMeta)
		if err := row.Scan(&created.ID, &created.Email, &created.PasswordHash, &created.CreatedAt); err != nil {
			return err
		}

		const insertProfile = `
			INSERT INTO profiles (id, first_name, last_name, username, date_of_birth, place_of_birth, residence, nationality)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''));`
		_, err := tx.Exec(ctx, insertProfile, created.ID, meta.FirstName, meta.LastName, meta.Username,
			meta.DateOfBirth, meta.PlaceOfBirth, meta.Residence, meta.Nationality)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.Identity{}, storage.ErrAlreadyExists
		}
		return models.Identity{}, err
	}
	return created, nil
}

// FindIdentityByEmail fetches an identity by its email address.
func (s *Store) FindIdentityByEmail(ctx context.Context, email string) (models.Identity, error) {
	const query = `SELECT id, email, password_hash, created_at FROM auth_users WHERE email = $1;`
	var identity models.Identity
	err := s.pool.QueryRow(ctx, query, strings.ToLower(email)).
		Scan(&identity.ID, &identity.Email, &identity.PasswordHash, &identity.CreatedAt)
	if err != nil {
		return models.Identity{}, notFound(err)
	}
	return identity, nil
}

// GetProfile fetches one profile, optionally joined with its limits.
func (s *Store) GetProfile(ctx context.Context, id uuid.UUID, withLimits bool) (models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles p WHERE p.id = $1;`
	profile, err := scanProfile(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return models.Profile{}, notFound(err)
	}
	if !withLimits {
		return profile, nil
	}

	limits, err := s.limitsFor(ctx, `WHERE user_id = $1`, id)
	if err != nil {
		return models.Profile{}, err
	}
	profile.Limits = limits[id]
	return profile, nil
}

// ListProfiles returns every profile joined with its limits.
func (s *Store) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles p ORDER BY p.created_at DESC;`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	limits, err := s.limitsFor(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		profiles[i].Limits = limits[profiles[i].ID]
	}
	return profiles, nil
}

// UpdateProfileStatus sets the gating status of a profile.
func (s *Store) UpdateProfileStatus(ctx context.Context, id uuid.UUID, status models.Status) error {
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET status = $2, updated_at = NOW() WHERE id = $1;`, id, string(status))
	if err != nil {
		return fmt.Errorf("update profile status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateProfileRole sets the role of a profile.
func (s *Store) UpdateProfileRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET role = $2, updated_at = NOW() WHERE id = $1;`, id, string(role))
	if err != nil {
		return fmt.Errorf("update profile role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountProfiles returns the number of profile rows.
func (s *Store) CountProfiles(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

func (s *Store) limitsFor(ctx context.Context, where string, args ...any) (map[uuid.UUID][]models.UserLimit, error) {
	query := `SELECT id, user_id, limit_type, period, amount::text, created_at, updated_at FROM user_limits ` +
		where + ` ORDER BY created_at;`
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list limits: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.UserLimit)
	for rows.Next() {
		var (
			limit             models.UserLimit
			limitType, period string
			amount            string
		)
		if err := rows.Scan(&limit.ID, &limit.UserID, &limitType, &period, &amount, &limit.CreatedAt, &limit.UpdatedAt); err != nil {
			return nil, err
		}
		limit.LimitType = models.LimitType(limitType)
		limit.Period = models.Period(period)
		limit.Amount = parseAmount(amount)
		out[limit.UserID] = append(out[limit.UserID], limit)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row) (models.Profile, error) {
	var (
		p                   models.Profile
		dob                 *time.Time
		role, status        string
		balance             string
		wFeeType, wFeeValue string
		sFeeType, sFeeValue string
	)
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Username,
		&dob, &p.PlaceOfBirth, &p.Residence, &p.Nationality,
		&p.IDCardPath, &role, &status, &balance,
		&wFeeType, &wFeeValue, &sFeeType, &sFeeValue,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Profile{}, err
	}
	p.DateOfBirth = dob
	p.Role = models.ParseRole(role)
	p.Status = models.ParseStatus(status)
	p.Balance = parseAmount(balance)
	p.WithdrawalFee = models.Fee{Type: models.ParseFeeType(wFeeType), Value: parseAmount(wFeeValue)}
	p.SendingFee = models.Fee{Type: models.ParseFeeType(sFeeType), Value: parseAmount(sFeeValue)}
	return p, nil
}

func parseAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
