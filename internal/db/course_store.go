package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/internal/course"
)

// CourseStore implements course.Store on Postgres.
type CourseStore struct {
	q *Queries
}

var _ course.Store = (*CourseStore)(nil)

func NewCourseStore(dbtx DBTX) *CourseStore {
	return &CourseStore{q: New(dbtx)}
}

func toCourse(c *Course) *course.Course {
	return &course.Course{
		ID:          FromUUID(c.ID),
		Title:       c.Title,
		Description: c.Description,
		ImageURL:    c.ImageUrl,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt.Time,
		UpdatedAt:   c.UpdatedAt.Time,
	}
}

func (s *CourseStore) Create(ctx context.Context, in course.NewCourse) (*course.Course, error) {
	row, err := s.q.InsertCourse(ctx, InsertCourseParams{
		ID:          UUID(uuid.New()),
		Title:       in.Title,
		Description: in.Description,
		ImageUrl:    in.ImageURL,
	})
	if err != nil {
		return nil, apperr.IO("course.create", err)
	}
	return toCourse(row), nil
}

func (s *CourseStore) FindByID(ctx context.Context, id uuid.UUID) (*course.Course, error) {
	row, err := s.q.GetCourse(ctx, UUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("course.find", "course %s not found", id)
	}
	if err != nil {
		return nil, apperr.IO("course.find", err)
	}
	return toCourse(row), nil
}

func (s *CourseStore) List(ctx context.Context) ([]*course.Course, error) {
	rows, err := s.q.ListCourses(ctx)
	if err != nil {
		return nil, apperr.IO("course.list", err)
	}
	out := make([]*course.Course, len(rows))
	for i, r := range rows {
		out[i] = toCourse(r)
	}
	return out, nil
}

func (s *CourseStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.q.CourseExists(ctx, UUID(id))
	if err != nil {
		return false, apperr.IO("course.exists", err)
	}
	return ok, nil
}
