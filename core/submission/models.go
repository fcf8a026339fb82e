package submission

import (
	"time"

	"github.com/eaduck/client/core"
)

type Submission struct {
	ID           int        `json:"id"`
	TaskID       int        `json:"taskId"`
	StudentID    int        `json:"studentId"`
	Content      string     `json:"content"`
	FileURL      string     `json:"fileUrl,omitempty"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	Grade        *float64   `json:"grade,omitempty"`
	Feedback     string     `json:"feedback,omitempty"`
	EvaluatedAt  *time.Time `json:"evaluatedAt,omitempty"`
	StudentName  string     `json:"studentName,omitempty"`
	StudentEmail string     `json:"studentEmail,omitempty"`
}

// ForTask returns the submissions belonging to the given task, in snapshot order.
func ForTask(subs []Submission, taskID int) []Submission {
	out := make([]Submission, 0, len(subs))
	for _, s := range subs {
		if s.TaskID == taskID {
			out = append(out, s)
		}
	}
	return out
}

// ByStudent returns the submissions made by the given student, in snapshot order.
func ByStudent(subs []Submission, studentID int) []Submission {
	out := make([]Submission, 0, len(subs))
	for _, s := range subs {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out
}

// EvaluateSubmission is the input for grading a submission.
type EvaluateSubmission struct {
	Grade    float64 `json:"grade" validate:"gte=0,lte=10"`
	Feedback string  `json:"feedback"`
}

func (es *EvaluateSubmission) Validate() error {
	es.Feedback = core.CleanString(es.Feedback)
	return core.Validate.Struct(es)
}
