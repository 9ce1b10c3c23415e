package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// CourseRepository loads catalog rows from PostgreSQL. The crawler writes the
// courses table; this repository only reads it.
type CourseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *sql.DB, logger *zap.Logger) *CourseRepository {
	return &CourseRepository{db: db, logger: logger}
}

const listCoursesQuery = `
	SELECT id, name, department, teacher, grade, credit, compulsory,
	       remaining, description, syllabus, objectives, tags, room,
	       class_time, url
	FROM courses
	ORDER BY row_order`

// ListCourses returns every catalog row ordered by row_order, the insertion
// order the offline embedding job also uses. Tags and class_time are text[]
// columns decoded through pq.Array, not parsed from loose strings.
func (r *CourseRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := r.db.QueryContext(ctx, listCoursesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var c models.Course
		err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Department,
			&c.Teacher,
			&c.Grade,
			&c.Credit,
			&c.Compulsory,
			&c.Remaining,
			&c.Description,
			&c.Syllabus,
			&c.Objectives,
			pq.Array(&c.Tags),
			&c.Room,
			pq.Array(&c.ClassTime),
			&c.URL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		courses = append(courses, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate course rows: %w", err)
	}

	r.logger.Debug("loaded courses from database", zap.Int("count", len(courses)))
	return courses, nil
}
