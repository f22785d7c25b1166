package timetable

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

func courseCell(name, teacher, location, color string) string {
	return fmt.Sprintf(`<td>
	<div class="item-box">
		<p>%s</p>
		<div class="tch-name"><span>教师：%s</span><span>2学分</span></div>
		<div><span><img src="/jsxsd/assets_v1/images/item1.png">%s</span></div>
		<span class="box" style="background-color: %s;"></span>
	</div>
</td>`, name, teacher, location, color)
}

func timetableHTML(rows ...string) string {
	return `<html><body><table id="timetable"><tbody>` + strings.Join(rows, "\n") + `</tbody></table></body></html>`
}

func row(slot string, cells ...string) string {
	for len(cells) < 7 {
		cells = append(cells, "<td> </td>")
	}
	return "<tr><td>" + slot + "</td>" + strings.Join(cells, "") + "</tr>"
}

func TestParse_MondayCourse(t *testing.T) {
	doc := timetableHTML(row("第一二节", courseCell("高等数学", "张三", "A101", "rgb(251,194,194)")))

	courses, err := ParseString(doc)
	require.NoError(t, err)
	require.Len(t, courses, 1)

	c := courses[0]
	assert.Equal(t, 1, c.Weekday)
	assert.Equal(t, "高等数学", c.CourseName)
	assert.Equal(t, "张三", c.Teacher)
	assert.Equal(t, "A101", c.Location)
	assert.Equal(t, entity.CourseTypeRequired, c.CourseType)
	assert.Equal(t, "8:30-10:00", c.TimeSlot)
	assert.Equal(t, "8:00", c.ReminderTime)
	assert.Contains(t, c.ReminderText, "A101")
	assert.Contains(t, c.ReminderText, "高等数学")
	assert.Contains(t, c.ReminderText, "张三老师")
}

func TestParse_RowAndColumnOrder(t *testing.T) {
	doc := timetableHTML(
		row("第一二节",
			"<td></td>",
			"<td></td>",
			courseCell("大学英语", "李四", "B202", "rgb(205, 221, 252)"),
			"<td></td>",
			courseCell("体育", "王五", "操场", "rgb(252, 217, 181)"),
		),
		row("第三四节", courseCell("线性代数", "赵六", "C303", "rgb(190, 237, 242)")),
	)

	courses, err := ParseString(doc)
	require.NoError(t, err)
	require.Len(t, courses, 3)

	assert.Equal(t, "大学英语", courses[0].CourseName)
	assert.Equal(t, 3, courses[0].Weekday)
	assert.Equal(t, entity.CourseTypeRestrictedElective, courses[0].CourseType)

	assert.Equal(t, "体育", courses[1].CourseName)
	assert.Equal(t, 5, courses[1].Weekday)
	assert.Equal(t, entity.CourseTypeGeneralElective, courses[1].CourseType)

	assert.Equal(t, "线性代数", courses[2].CourseName)
	assert.Equal(t, 1, courses[2].Weekday)
	assert.Equal(t, "10:20-11:50", courses[2].TimeSlot)
	assert.Equal(t, "9:50", courses[2].ReminderTime)
}

func TestParse_SkipsRowWithEmptyFirstCell(t *testing.T) {
	tests := []struct {
		name  string
		first string
	}{
		{name: "empty cell", first: "<td></td>"},
		{name: "whitespace only", first: "<td>   \n </td>"},
		{name: "only nested markup", first: "<td><span>午休</span></td>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := timetableHTML(
				"<tr>" + tt.first + courseCell("高等数学", "张三", "A101", "rgb(251, 194, 194)") + "</tr>",
			)

			courses, err := ParseString(doc)
			require.NoError(t, err)
			assert.Empty(t, courses)
		})
	}
}

func TestParse_WhitespaceCellIsEmpty(t *testing.T) {
	doc := timetableHTML(row("第五六节", "<td>\n\t  </td>", "<td><div><span></span></div></td>"))

	courses, err := ParseString(doc)
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestParse_MissingFieldsDegradeToEmpty(t *testing.T) {
	cell := `<td><div class="item-box"><p>形势与政策</p></div></td>`
	doc := timetableHTML(row("第九十节", "<td></td>", cell))

	courses, err := ParseString(doc)
	require.NoError(t, err)
	require.Len(t, courses, 1)

	c := courses[0]
	assert.Equal(t, 2, c.Weekday)
	assert.Equal(t, "形势与政策", c.CourseName)
	assert.Empty(t, c.Teacher)
	assert.Empty(t, c.Location)
	assert.Equal(t, entity.CourseTypeUnclassified, c.CourseType)
	assert.Equal(t, "18:30-20:00", c.TimeSlot)
}

func TestParse_UnknownSlotPassesThrough(t *testing.T) {
	doc := timetableHTML(row("第十一节", courseCell("选修课", "钱七", "D404", "rgb(1, 2, 3)")))

	courses, err := ParseString(doc)
	require.NoError(t, err)
	require.Len(t, courses, 1)

	assert.Equal(t, "第十一节", courses[0].TimeSlot)
	assert.Equal(t, "第十一节", courses[0].ReminderTime)
	assert.Equal(t, entity.CourseTypeUnclassified, courses[0].CourseType)
}

func TestParse_NoTimetable(t *testing.T) {
	courses, err := ParseString("<html><body><p>请先登录</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, courses)
}
