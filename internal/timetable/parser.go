package timetable

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

const (
	rowSelector     = "table#timetable > tbody > tr"
	itemSelector    = `div[class="item-box"]`
	teacherSelector = `div[class="tch-name"]`
	colorSelector   = `span[class="box"]`
	locationIconSrc = "/jsxsd/assets_v1/images/item1.png"
	teacherPrefix   = "教师："
	weekdayColumns  = 7
)

// Parse reads one week's timetable grid. Rows are time slots and columns
// two to eight are Monday to Sunday. Fields missing from a cell come back
// empty; only an unreadable document is an error.
func Parse(r io.Reader) ([]entity.CourseRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrParse, "")
	}

	var courses []entity.CourseRecord
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")

		slot, ok := firstOwnText(cells.First())
		if !ok {
			return
		}
		timeSlot := SlotRange(slot)
		reminderTime := SlotReminder(slot)

		for day := 1; day <= weekdayColumns; day++ {
			cell := cells.Eq(day)
			if cell.Length() == 0 || strings.TrimSpace(cell.Text()) == "" {
				continue
			}
			courses = append(courses, parseCell(cell, day, timeSlot, reminderTime))
		}
	})

	return courses, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(doc string) ([]entity.CourseRecord, error) {
	return Parse(strings.NewReader(doc))
}

func parseCell(cell *goquery.Selection, weekday int, timeSlot, reminderTime string) entity.CourseRecord {
	name, _ := courseName(cell)
	teacher, _ := teacherName(cell)
	loc, _ := location(cell)

	courseType := entity.CourseTypeUnclassified
	if style, ok := colorStyle(cell); ok {
		courseType = Classify(style)
	}

	return entity.CourseRecord{
		TimeSlot:     timeSlot,
		Weekday:      weekday,
		CourseName:   name,
		Teacher:      teacher,
		Location:     loc,
		CourseType:   courseType,
		ReminderTime: reminderTime,
		ReminderText: ReminderText(timeSlot, loc, name, teacher),
	}
}

// ReminderText is the message pushed shortly before a class.
func ReminderText(timeSlot, location, courseName, teacher string) string {
	return fmt.Sprintf("提醒:\n%s\n请准备前往 %s,即将开始 %s (%s老师)的课程。", timeSlot, location, courseName, teacher)
}

func courseName(cell *goquery.Selection) (string, bool) {
	return firstOwnText(cell.Find(itemSelector).ChildrenFiltered("p").First())
}

func teacherName(cell *goquery.Selection) (string, bool) {
	var (
		name  string
		found bool
	)
	cell.Find(teacherSelector).EachWithBreak(func(_ int, div *goquery.Selection) bool {
		name, found = firstOwnText(div.ChildrenFiltered("span").First())
		return !found
	})
	if !found {
		return "", false
	}
	return strings.TrimSpace(strings.ReplaceAll(name, teacherPrefix, "")), true
}

func location(cell *goquery.Selection) (string, bool) {
	var (
		loc   string
		found bool
	)
	cell.Find("div span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		icon := span.ChildrenFiltered("img").FilterFunction(func(_ int, img *goquery.Selection) bool {
			src, _ := img.Attr("src")
			return src == locationIconSrc
		})
		if icon.Length() == 0 {
			return true
		}
		loc, found = firstOwnText(span)
		return !found
	})
	return loc, found
}

func colorStyle(cell *goquery.Selection) (string, bool) {
	box := cell.Find(colorSelector).First()
	if box.Length() == 0 {
		return "", false
	}
	return box.Attr("style")
}

// firstOwnText returns the first non-blank text node that is a direct child
// of the first element in sel, trimmed.
func firstOwnText(sel *goquery.Selection) (string, bool) {
	if sel.Length() == 0 {
		return "", false
	}
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		if text := strings.TrimSpace(c.Data); text != "" {
			return text, true
		}
	}
	return "", false
}
