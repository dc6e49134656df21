package repository

import (
	"context"
	"fmt"

	"campusportal/internal/catalog"
	"campusportal/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository stores the course dataset. It also serves as a
// catalog.Source.
type CatalogRepository interface {
	catalog.Source
	ListCourses(ctx context.Context) ([]model.Course, error)
	// ListSections returns sections in the order they were loaded.
	ListSections(ctx context.Context) ([]model.Section, error)
	// ReplaceCatalog swaps the whole dataset in one transaction.
	ReplaceCatalog(ctx context.Context, data catalog.Data) error
}

type catalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepo{pool: pool}
}

func (r *catalogRepo) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name FROM courses ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	courses, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Course])
	if err != nil {
		return nil, fmt.Errorf("scanning courses: %w", err)
	}
	return courses, nil
}

func (r *catalogRepo) ListSections(ctx context.Context) ([]model.Section, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT nrc, course_id, professor, campus, modalidad
		FROM sections
		ORDER BY position, nrc
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sections: %w", err)
	}
	sections, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Section])
	if err != nil {
		return nil, fmt.Errorf("scanning sections: %w", err)
	}
	return sections, nil
}

func (r *catalogRepo) FetchCourseData(ctx context.Context) (catalog.Data, error) {
	courses, err := r.ListCourses(ctx)
	if err != nil {
		return catalog.Data{}, err
	}
	sections, err := r.ListSections(ctx)
	if err != nil {
		return catalog.Data{}, err
	}
	return catalog.Data{Courses: courses, Sections: sections}, nil
}

func (r *catalogRepo) ReplaceCatalog(ctx context.Context, data catalog.Data) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("starting transaction for catalog import: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `TRUNCATE sections, courses`); err != nil {
		return fmt.Errorf("clearing catalog: %w", err)
	}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"courses"}, []string{"id", "code", "name", "position"},
		pgx.CopyFromSlice(len(data.Courses), func(i int) ([]any, error) {
			c := data.Courses[i]
			return []any{c.ID, c.Code, c.Name, i}, nil
		}))
	if err != nil {
		return fmt.Errorf("copying courses: %w", err)
	}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"sections"}, []string{"nrc", "course_id", "professor", "campus", "modalidad", "position"},
		pgx.CopyFromSlice(len(data.Sections), func(i int) ([]any, error) {
			s := data.Sections[i]
			return []any{s.NRC, s.CourseID, s.Professor, s.Campus, s.Modalidad, i}, nil
		}))
	if err != nil {
		return fmt.Errorf("copying sections: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing catalog import: %w", err)
	}
	return nil
}
