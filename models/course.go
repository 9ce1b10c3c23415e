package models

// Course is a single catalog entry. Courses are loaded once at startup and
// never mutated afterwards, so they are safe to share across requests.
type Course struct {
	// ID is the unique course code (e.g. "IM101").
	ID string `json:"id"`

	// Name is the course title, possibly bilingual with a newline separator.
	Name string `json:"name"`

	// Department offering the course.
	Department string `json:"department"`

	// Teacher is the instructor name.
	Teacher string `json:"teacher"`

	// Grade is the targeted student year (1-based).
	Grade int `json:"grade"`

	// Credit is the number of credits awarded.
	Credit float64 `json:"credit"`

	// Compulsory is true for required courses, false for electives.
	Compulsory bool `json:"compulsory"`

	// Remaining is the number of open seats.
	Remaining int `json:"remaining"`

	// Description is the free-text course description.
	Description string `json:"description"`

	// Syllabus is the course outline text.
	Syllabus string `json:"syllabus"`

	// Objectives is the course objectives text.
	Objectives string `json:"objectives"`

	// Tags lists the academic programs the course belongs to.
	Tags []string `json:"tags"`

	// Room is the meeting location, including the weekday/period prefix.
	Room string `json:"room"`

	// ClassTime holds one entry per weekday (Mon..Sun) with the occupied
	// periods, empty string when the course does not meet that day.
	ClassTime []string `json:"classTime"`

	// URL points at the official course outline page.
	URL string `json:"url"`
}

// ScoredCourse pairs a catalog course with its relevance score for one query.
type ScoredCourse struct {
	Course *Course `json:"course"`
	Score  float64 `json:"score"`
}

// RankedResult is an ordered list of scored courses, non-increasing by score.
// Ties keep the original catalog row order (scorers sort stably).
type RankedResult []ScoredCourse

// CourseIDs returns the ranked course identifiers in order.
func (r RankedResult) CourseIDs() []string {
	ids := make([]string, len(r))
	for i, sc := range r {
		ids[i] = sc.Course.ID
	}
	return ids
}

// Top returns the first k entries (all entries when fewer than k exist).
func (r RankedResult) Top(k int) RankedResult {
	if k < 0 {
		k = 0
	}
	if len(r) <= k {
		return r
	}
	return r[:k]
}
