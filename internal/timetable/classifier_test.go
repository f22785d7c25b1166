package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		style string
		want  entity.CourseType
	}{
		{name: "required", style: "background-color: rgb(251, 194, 194);", want: entity.CourseTypeRequired},
		{name: "required without spaces", style: "background-color:rgb(251,194,194)", want: entity.CourseTypeRequired},
		{name: "restricted elective", style: "width:4px;background-color: rgb( 205 , 221 , 252 )", want: entity.CourseTypeRestrictedElective},
		{name: "free elective", style: "background-color: rgb(190, 237, 242);", want: entity.CourseTypeFreeElective},
		{name: "general elective", style: "background-color: rgb(252, 217, 181);", want: entity.CourseTypeGeneralElective},
		{name: "other", style: "background-color: rgb(247, 247, 248);", want: entity.CourseTypeOther},
		{name: "unknown colour", style: "background-color: rgb(0, 0, 0);", want: entity.CourseTypeUnclassified},
		{name: "hex colour", style: "background-color: #fbc2c2;", want: entity.CourseTypeUnclassified},
		{name: "empty style", style: "", want: entity.CourseTypeUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.style))
		})
	}
}

func TestClassify_SameColourSameType(t *testing.T) {
	a := Classify("background-color: rgb(205,221,252)")
	b := Classify("color: red; background-color:   rgb(205, 221, 252);")
	assert.Equal(t, a, b)
}
