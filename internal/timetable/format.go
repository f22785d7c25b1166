package timetable

import (
	"fmt"
	"strings"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

// FormatText renders courses as a plain text table for chat clients that
// should not receive an image.
func FormatText(week int, weekdayLabel string, courses []entity.CourseRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("第 %d 周 周%s课程表\n", week, weekdayLabel))
	if len(courses) == 0 {
		sb.WriteString("今日无课程")
		return sb.String()
	}

	for _, c := range courses {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("【%s】%s\n", c.TimeSlot, c.CourseName))
		sb.WriteString(fmt.Sprintf("教师: %s\n", c.Teacher))
		sb.WriteString(fmt.Sprintf("地点: %s\n", c.Location))
		if c.CourseType != entity.CourseTypeUnclassified {
			sb.WriteString(fmt.Sprintf("类型: %s\n", c.CourseType))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
