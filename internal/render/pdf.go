package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

const cjkFont = "cjk"

// PDFRenderer lays the timetable out as a one page PDF. Chinese text needs
// a UTF-8 TrueType font; without one the core Arial font is used.
type PDFRenderer struct {
	fontPath string
}

func NewPDFRenderer(fontPath string) *PDFRenderer {
	return &PDFRenderer{fontPath: fontPath}
}

func (r *PDFRenderer) Render(ctx context.Context, view entity.TimetableView) (*entity.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRender, "")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)

	family := "Arial"
	if r.fontPath != "" {
		pdf.AddUTF8Font(cjkFont, "", r.fontPath)
		family = cjkFont
	}
	pdf.AddPage()

	pdf.SetFont(family, "", 16)
	pdf.CellFormat(0, 12, fmt.Sprintf("第 %d 周 周%s课程表", view.Week, view.WeekdayLabel), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(view.Courses) == 0 {
		pdf.SetFont(family, "", 12)
		pdf.CellFormat(0, 10, "今日无课程", "", 1, "C", false, 0, "")
	}

	for _, c := range view.Courses {
		pdf.SetFont(family, "", 12)
		pdf.SetFillColor(236, 240, 241)
		pdf.CellFormat(40, 8, c.TimeSlot, "1", 0, "C", true, 0, "")
		pdf.CellFormat(0, 8, c.CourseName, "1", 1, "", true, 0, "")

		pdf.SetFont(family, "", 10)
		pdf.CellFormat(40, 7, "", "LB", 0, "", false, 0, "")
		detail := fmt.Sprintf("教师: %s   地点: %s", c.Teacher, c.Location)
		if c.CourseType != entity.CourseTypeUnclassified {
			detail += fmt.Sprintf("   类型: %s", c.CourseType)
		}
		pdf.CellFormat(0, 7, detail, "RB", 1, "", false, 0, "")
		pdf.Ln(3)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRender, "failed to write pdf")
	}

	return &entity.Artifact{
		Name:        fmt.Sprintf("timetable-%s.pdf", uuid.NewString()),
		ContentType: "application/pdf",
		Data:        buf.Bytes(),
	}, nil
}
