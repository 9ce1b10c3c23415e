package synthesis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/models"
)

// maxValueRunes caps any rendered field value; longer values are truncated
// with an ellipsis marker. Counted in runes, not bytes, because most catalog
// text is Chinese.
const maxValueRunes = 200

// canonicalFields is the fixed order of labeled course fields in the prompt.
var canonicalFields = []string{
	"name", "id", "department", "grade", "credit",
	"teacher", "compulsory", "remaining", "description",
	"syllabus", "objectives", "tags",
}

// fieldDisplayNames maps canonical field names to their Chinese labels.
var fieldDisplayNames = map[string]string{
	"name":        "課程名稱",
	"id":          "課程代碼",
	"department":  "開課系所",
	"grade":       "年級",
	"credit":      "學分",
	"teacher":     "授課教師",
	"compulsory":  "課程類型",
	"remaining":   "剩餘名額",
	"description": "課程描述",
	"syllabus":    "課程大綱",
	"objectives":  "課程目標",
	"tags":        "學程",
}

// displayName returns the Chinese label for a field, or the field name itself
// when no label exists.
func displayName(field string) string {
	if name, ok := fieldDisplayNames[field]; ok {
		return name
	}
	return field
}

// FormatPrompt renders the structured prompt handed to the generation model:
// the query conditions, the already-selected courses (when any), and one
// labeled block per recommended course.
func FormatPrompt(courses models.RankedResult, query models.StructuredQuery, selected []*models.Course) string {
	var b strings.Builder

	b.WriteString("### 查詢條件\n")
	writeQueryDetails(&b, query)

	if len(selected) > 0 {
		b.WriteString("\n### 已選課程\n")
		for _, c := range selected {
			fmt.Fprintf(&b, "- %s（%s）\n", truncate(c.Name), c.ID)
		}
	}

	b.WriteString("\n### 課程資訊\n")
	for _, sc := range courses {
		writeCourseDetails(&b, sc.Course)
	}

	return b.String()
}

// writeQueryDetails renders the populated query slots.
func writeQueryDetails(b *strings.Builder, query models.StructuredQuery) {
	if query.Teacher != "" {
		fmt.Fprintf(b, "- **teacher**: %s\n", query.Teacher)
	}
	if query.Keywords != "" {
		fmt.Fprintf(b, "- **keywords**: %s\n", query.Keywords)
	}
	if query.Department != "" {
		fmt.Fprintf(b, "- **department**: %s\n", query.Department)
	}
	if query.Program != "" {
		fmt.Fprintf(b, "- **program**: %s\n", query.Program)
	}
	if query.Grade != nil {
		fmt.Fprintf(b, "- **grade**: %d\n", *query.Grade)
	}
	if query.DeliveryMode != "" {
		fmt.Fprintf(b, "- **deliveryMode**: %s\n", query.DeliveryMode)
	}
}

// writeCourseDetails renders the canonical labeled fields in fixed order,
// then any remaining non-empty attributes under a secondary block.
func writeCourseDetails(b *strings.Builder, c *models.Course) {
	b.WriteString("#### 課程詳細資訊\n")
	for _, field := range canonicalFields {
		fmt.Fprintf(b, "- **%s**: %s\n", displayName(field), canonicalValue(c, field))
	}

	extras := secondaryAttributes(c)
	if len(extras) > 0 {
		b.WriteString("\n#### 其他資訊\n")
		for _, attr := range extras {
			fmt.Fprintf(b, "- **%s**: %s\n", attr.name, attr.value)
		}
	}

	b.WriteString("\n")
}

// canonicalValue stringifies one canonical course field.
func canonicalValue(c *models.Course, field string) string {
	switch field {
	case "name":
		return truncate(c.Name)
	case "id":
		return c.ID
	case "department":
		return c.Department
	case "grade":
		return strconv.Itoa(c.Grade)
	case "credit":
		return strconv.FormatFloat(c.Credit, 'f', -1, 64)
	case "teacher":
		return c.Teacher
	case "compulsory":
		if c.Compulsory {
			return "必修"
		}
		return "選修"
	case "remaining":
		return strconv.Itoa(c.Remaining)
	case "description":
		return truncate(c.Description)
	case "syllabus":
		return truncate(c.Syllabus)
	case "objectives":
		return truncate(c.Objectives)
	case "tags":
		return truncate(strings.Join(c.Tags, ", "))
	}
	return ""
}

type attribute struct {
	name  string
	value string
}

// secondaryAttributes collects the course attributes outside the canonical
// set, skipping empty values.
func secondaryAttributes(c *models.Course) []attribute {
	var attrs []attribute
	if strings.TrimSpace(c.Room) != "" {
		attrs = append(attrs, attribute{name: "room", value: truncate(c.Room)})
	}
	if slots := occupiedSlots(c.ClassTime); slots != "" {
		attrs = append(attrs, attribute{name: "classTime", value: truncate(slots)})
	}
	if strings.TrimSpace(c.URL) != "" {
		attrs = append(attrs, attribute{name: "url", value: truncate(c.URL)})
	}
	return attrs
}

// occupiedSlots stringifies the per-weekday period list, dropping empty days.
func occupiedSlots(classTime []string) string {
	var slots []string
	for _, periods := range classTime {
		if periods != "" {
			slots = append(slots, periods)
		}
	}
	return strings.Join(slots, ", ")
}

// truncate cuts a value beyond maxValueRunes and appends the ellipsis marker.
func truncate(value string) string {
	runes := []rune(value)
	if len(runes) <= maxValueRunes {
		return value
	}
	return string(runes[:maxValueRunes]) + "..."
}
