package models

// ExamSeat assigns one student to a seat for an exam.
type ExamSeat struct {
	ExamID    int64  `db:"exam_id" json:"exam_id"`
	StudentID int64  `db:"student_id" json:"student_id"`
	SeatNo    string `db:"seat_no" json:"seat_no"`
}

// SeatingResult summarises a seat allocation run.
type SeatingResult struct {
	TotalStudents int    `json:"total_students"`
	Assigned      int    `json:"assigned"`
	Unassigned    int    `json:"unassigned"`
	VenueName     string `json:"venue_name"`
}
