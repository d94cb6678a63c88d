package queue

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Priority tags a patient can check in with. Anything else sorts as a normal
// arrival.
const (
	PriorityEmergency = "Khẩn cấp"
	PriorityPreferred = "Ưu tiên"
)

// Entry maps to the waiting_queue table.
type Entry struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientName string     `db:"patient_name" json:"patient_name"`
	DOB         *time.Time `db:"dob" json:"dob,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	PriorityTag *string    `db:"priority_tag" json:"priority_tag,omitempty"`
	CheckInTime time.Time  `db:"check_in_time" json:"check_in_time"`
}

// ActivePatient maps to the active_patient table. At most one row exists.
type ActivePatient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientName string     `db:"patient_name" json:"patient_name"`
	DOB         *time.Time `db:"dob" json:"dob,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	DoctorID    string     `db:"doctor_id" json:"doctor_id"`
	CalledAt    time.Time  `db:"called_at" json:"called_at"`
}

func priorityRank(tag *string) int {
	if tag == nil {
		return 0
	}
	switch *tag {
	case PriorityEmergency:
		return 2
	case PriorityPreferred:
		return 1
	}
	return 0
}

// SortEntries orders a waiting list for calling: priority first, then FIFO by
// check-in time.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := priorityRank(entries[i].PriorityTag), priorityRank(entries[j].PriorityTag)
		if ri != rj {
			return ri > rj
		}
		return entries[i].CheckInTime.Before(entries[j].CheckInTime)
	})
}
