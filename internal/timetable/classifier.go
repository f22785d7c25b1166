package timetable

import (
	"fmt"
	"regexp"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

var colorPattern = regexp.MustCompile(`background-color:\s*rgb\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*\)`)

var courseTypeByColor = map[string]entity.CourseType{
	"rgb(251, 194, 194)": entity.CourseTypeRequired,
	"rgb(205, 221, 252)": entity.CourseTypeRestrictedElective,
	"rgb(190, 237, 242)": entity.CourseTypeFreeElective,
	"rgb(252, 217, 181)": entity.CourseTypeGeneralElective,
	"rgb(247, 247, 248)": entity.CourseTypeOther,
}

// Classify returns the course type encoded by the background colour of an
// inline style attribute. Unknown or missing colours are unclassified.
func Classify(style string) entity.CourseType {
	color, ok := normalizeColor(style)
	if !ok {
		return entity.CourseTypeUnclassified
	}
	return courseTypeByColor[color]
}

// normalizeColor extracts the background colour as "rgb(r, g, b)".
func normalizeColor(style string) (string, bool) {
	m := colorPattern.FindStringSubmatch(style)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("rgb(%s, %s, %s)", m[1], m[2], m[3]), true
}
