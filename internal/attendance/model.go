package attendance

// Status is the attendance mark for one student on one day.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Entry is one student's mark inside a day+class submission.
type Entry struct {
	StudentID int64  `json:"student_id"`
	Status    Status `json:"status"`
}

// Row is a ledger record joined with its student. StudentName and Roll are nil
// when the student no longer exists.
type Row struct {
	ID          int64   `json:"id"`
	StudentID   int64   `json:"student_id"`
	Date        string  `json:"date"`
	Status      Status  `json:"status"`
	ClassName   string  `json:"class_name"`
	StudentName *string `json:"student_name"`
	Roll        *int    `json:"roll"`
}

// Filter narrows List. Empty fields do not filter.
type Filter struct {
	Date  string
	Class string
}

// StudentSummary holds lifetime present/absent counts for one student in a class.
type StudentSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Roll    int    `json:"roll"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
}

// Report is the per-class attendance summary.
type Report struct {
	Class    string           `json:"class"`
	Students []StudentSummary `json:"students"`
}
