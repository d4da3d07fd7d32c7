package models

type AssignmentChangedEvent struct {
	AssignmentID string `json:"assignment_id"`
	StudentID    string `json:"student_id"`
	WriterID     *int   `json:"writer_id,omitempty"`
	Action       string `json:"action"` // created, updated, status_changed, reassigned, payment_recorded, deleted
	Status       string `json:"status"`
	Timestamp    int64  `json:"timestamp"`
}

const (
	EventActionCreated         = "created"
	EventActionUpdated         = "updated"
	EventActionStatusChanged   = "status_changed"
	EventActionReassigned      = "reassigned"
	EventActionPaymentRecorded = "payment_recorded"
	EventActionDeleted         = "deleted"
)
