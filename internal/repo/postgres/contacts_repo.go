package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pagedesk/blogapi/internal/domain/contact"
	"github.com/pagedesk/blogapi/internal/observability"
)

type ContactsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewContactsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ContactsRepo {
	return &ContactsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *ContactsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Insert stores one submission. There is deliberately no update or delete:
// submissions are immutable once written.
func (r *ContactsRepo) Insert(ctx context.Context, req contact.CreateSubmissionRequest) error {
	return r.observe("contacts.insert", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO contacts (first_name, last_name, email, comments)
			 VALUES ($1, $2, $3, $4)`,
			req.FirstName, req.LastName, req.Email, req.Comments,
		)
		return err
	})
}

func (r *ContactsRepo) List(ctx context.Context) ([]contact.Submission, error) {
	output := make([]contact.Submission, 0)

	err := r.observe("contacts.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, first_name, last_name, email, comments, created_at
			 FROM contacts
			 ORDER BY created_at DESC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var s contact.Submission

			err = rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Comments, &s.CreatedAt)

			if err != nil {
				return err
			}

			output = append(output, s)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}
