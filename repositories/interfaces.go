package repositories

import (
	"context"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
)

// CourseRepository provides read access to the course catalog. The catalog is
// written by the external crawler; this service only reads it.
type CourseRepository interface {
	// ListCourses returns every catalog row in natural (insertion) order.
	// Row order must match the precomputed embedding index.
	ListCourses(ctx context.Context) ([]models.Course, error)
}
