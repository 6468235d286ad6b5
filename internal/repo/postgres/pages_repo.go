package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pagedesk/blogapi/internal/domain/page"
	"github.com/pagedesk/blogapi/internal/observability"
)

// Published dates are stored as DATE and rendered as MM/DD/YYYY everywhere
// the API returns them.
const dateDisplayFormat = "'MM/DD/YYYY'"

type PagesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewPagesRepo(pool *pgxpool.Pool, prom *observability.Prom) *PagesRepo {
	return &PagesRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *PagesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// List returns page summaries, newest first. When activeOnly is set only
// pages with active = 'yes' are returned (the public listing).
func (r *PagesRepo) List(ctx context.Context, activeOnly bool) ([]page.Summary, error) {
	query := `SELECT page_id,
		path,
		title,
		description,
		to_char(published_date, ` + dateDisplayFormat + `) AS published_date,
		active
	FROM pages
	`

	if activeOnly {
		query += ` WHERE active = 'yes'`
	}

	// stable ordering, newest first like the public site shows them. The
	// table column must be qualified here: the bare name would resolve to
	// the to_char alias and sort the formatted text instead of the date.
	query += ` ORDER BY pages.published_date DESC, page_id DESC`

	output := make([]page.Summary, 0)

	err := r.observe("pages.list", func() error {
		rows, err := r.pool.Query(ctx, query)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var s page.Summary

			err = rows.Scan(&s.PageID, &s.Path, &s.Title, &s.Description, &s.PublishedDate, &s.Active)

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

// GetByID fetches a single page with its category joined in. With activeOnly
// set an inactive page is indistinguishable from a missing one.
func (r *PagesRepo) GetByID(ctx context.Context, id int, activeOnly bool) (page.Page, error) {
	query := `SELECT p.page_id,
		p.path,
		p.title,
		p.description,
		p.content,
		c.category_id,
		c.name AS category_name,
		to_char(p.published_date, ` + dateDisplayFormat + `) AS published_date,
		p.active
	FROM pages p
	INNER JOIN categories c ON p.category_id = c.category_id
	WHERE p.page_id = $1`

	if activeOnly {
		query += ` AND p.active = 'yes'`
	}

	var p page.Page

	err := r.observe("pages.get_by_id", func() error {
		return r.pool.QueryRow(ctx, query, id).Scan(
			&p.PageID,
			&p.Path,
			&p.Title,
			&p.Description,
			&p.Content,
			&p.CategoryID,
			&p.CategoryName,
			&p.PublishedDate,
			&p.Active,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return page.Page{}, page.ErrNotFound
		}

		return page.Page{}, err
	}

	return p, nil
}

func (r *PagesRepo) Create(ctx context.Context, req page.CreatePageRequest) (int, error) {
	var id int

	err := r.observe("pages.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO pages (path, title, description, content, category_id, published_date, active)
			 VALUES ($1, $2, $3, $4, $5, $6::date, $7)
			 RETURNING page_id`,
			req.Path, req.Title, req.Description, req.Content, req.CategoryID, req.PublishedDate, req.SetActive,
		).Scan(&id)
	})

	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *PagesRepo) Update(ctx context.Context, id int, req page.UpdatePageRequest) error {
	var tag pgconn.CommandTag

	err := r.observe("pages.update", func() error {
		t, err := r.pool.Exec(
			ctx,
			`UPDATE pages
				SET path = $2,
						title = $3,
						description = $4,
						content = $5,
						category_id = $6,
						published_date = $7::date,
						active = $8
			WHERE page_id = $1`,
			id,
			req.Path,
			req.Title,
			req.Description,
			req.Content,
			req.CategoryID,
			req.PublishedDate,
			req.SetActive,
		)

		tag = t
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return page.ErrNotFound
	}

	return nil
}

func (r *PagesRepo) Delete(ctx context.Context, id int) error {
	var tag pgconn.CommandTag

	err := r.observe("pages.delete", func() error {
		t, err := r.pool.Exec(ctx, `
			DELETE FROM pages WHERE page_id = $1
		`, id)

		tag = t
		return err
	})

	if err != nil {

		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag.RowsAffected() == 0 {
		return page.ErrNotFound
	}

	return nil
}
