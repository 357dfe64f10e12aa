package domain

import (
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Category string

const (
	CategoryTodo       Category = "todo"
	CategoryInProgress Category = "in progress"
	CategoryDone       Category = "done"
)

const (
	TimeLayout = "15:04"
	DateLayout = "2006-01-02"
)

var (
	ErrTaskNotAllowed = &Error{Kind: KindNotAllowed, Message: "Not allowed"}
	ErrTaskDateQuery  = &Error{Kind: KindValidation, Message: "Bad Request"}
	ErrTaskTimeOrder  = &Error{Kind: KindValidation, Message: "End time cannot be less than start time."}
)

type Task struct {
	ID       string
	Title    string
	Start    string // HH:mm
	End      string // HH:mm
	Priority Priority
	Date     string // YYYY-MM-DD
	Category Category
	OwnerID  string
	Owner    *Owner // populated on list

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CheckTimes enforces that End is strictly after Start.
func (t *Task) CheckTimes() error {
	start, err := time.Parse(TimeLayout, t.Start)
	if err != nil {
		return Validation("Invalid start time format " + t.Start + ". Use HH:mm (e.g., '09:00').")
	}
	end, err := time.Parse(TimeLayout, t.End)
	if err != nil {
		return Validation("Invalid end time format " + t.End + ". Use HH:mm (e.g., '09:00').")
	}
	if !end.After(start) {
		return ErrTaskTimeOrder
	}
	return nil
}
