package timetable

// slotRanges maps a slot name to the class time shown to users.
var slotRanges = map[string]string{
	"第一二节": "8:30-10:00",
	"第三四节": "10:20-11:50",
	"第五六节": "14:00-15:30",
	"第七八节": "15:50-17:20",
	"第九十节": "18:30-20:00",
}

// slotReminders maps a slot name to the time its reminder fires,
// half an hour before the class starts.
var slotReminders = map[string]string{
	"第一二节": "8:00",
	"第三四节": "9:50",
	"第五六节": "13:30",
	"第七八节": "15:20",
	"第九十节": "18:00",
}

// SlotRange returns the time range for slot, or slot itself when unknown.
func SlotRange(slot string) string {
	if r, ok := slotRanges[slot]; ok {
		return r
	}
	return slot
}

// SlotReminder returns the reminder anchor for slot, or slot itself when unknown.
func SlotReminder(slot string) string {
	if r, ok := slotReminders[slot]; ok {
		return r
	}
	return slot
}
