package company

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"callcenter-platform/pkg/utils"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("company: not found")

// Repository is the persistence contract for companies.
//
// ReplaceAll is the only bulk write; it backs the import confirm step and
// MUST be atomic (readers never observe a partially replaced table).

type Repository interface {
	GetByID(ctx context.Context, id string) (Company, error)
	List(ctx context.Context) ([]Company, error)
	ListByStatusThenName(ctx context.Context) ([]Company, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	ReplaceAll(ctx context.Context, rows []Company) error
	Insert(ctx context.Context, c Company) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const companyColumns = `id, name, phone, product, activity, location, legal_form, niu, validity_score, status, created_at, updated_at`

func scanCompany(row interface{ Scan(...any) error }) (Company, error) {
	var c Company
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Phone,
		&c.Product,
		&c.Activity,
		&c.Location,
		&c.LegalForm,
		&c.NIU,
		&c.ValidityScore,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Company, error) {
	const q = `
SELECT ` + companyColumns + `
FROM companies
WHERE id = $1
`
	c, err := scanCompany(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		return Company{}, err
	}
	return c, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Company, error) {
	const q = `
SELECT ` + companyColumns + `
FROM companies
ORDER BY name
`
	return r.queryCompanies(ctx, q)
}

func (r *PostgresRepo) ListByStatusThenName(ctx context.Context) ([]Company, error) {
	const q = `
SELECT ` + companyColumns + `
FROM companies
ORDER BY status, name
`
	return r.queryCompanies(ctx, q)
}

func (r *PostgresRepo) queryCompanies(ctx context.Context, q string, args ...any) ([]Company, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n)
	return n, err
}

func (r *PostgresRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM companies GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[Status]int{}
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	const q = `
UPDATE companies SET status = $2, updated_at = NOW()
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceAll deletes every company and bulk-inserts rows in one transaction.
// A failure anywhere rolls back to the previous data set.
func (r *PostgresRepo) ReplaceAll(ctx context.Context, rows []Company) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM companies`); err != nil {
			return err
		}
		const q = `
INSERT INTO companies (id, name, phone, product, activity, location, legal_form, niu, validity_score, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
`
		for _, c := range rows {
			id := c.ID
			if id == "" {
				id = uuid.NewString()
			}
			if _, err := tx.ExecContext(ctx, q,
				id, c.Name, c.Phone, c.Product, c.Activity, c.Location, c.LegalForm, c.NIU, c.ValidityScore, c.Status,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepo) Insert(ctx context.Context, c Company) error {
	const q = `
INSERT INTO companies (id, name, phone, product, activity, location, legal_form, niu, validity_score, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
`
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.Name, c.Phone, c.Product, c.Activity, c.Location, c.LegalForm, c.NIU, c.ValidityScore, c.Status, created,
	)
	return err
}
