package task

import (
	"time"

	"github.com/eaduck/client/core"
)

// Task types as reported by the backend.
type Type string

const (
	TypeTarefa      Type = "TAREFA"
	TypeProva       Type = "PROVA"
	TypeForum       Type = "FORUM"
	TypeNotificacao Type = "NOTIFICACAO"
)

// Status is derived on read from the submissions snapshot; it is never
// stored.
type Status string

const (
	StatusPendente  Status = "pendente"
	StatusConcluida Status = "concluida"
	StatusAtrasada  Status = "atrasada"
)

type Task struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	DueDate       time.Time `json:"dueDate"`
	ClassroomID   int       `json:"classroomId"`
	ClassroomName string    `json:"classroomName,omitempty"`
	CreatedByID   int       `json:"createdById,omitempty"`
	CreatedByName string    `json:"createdByName,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
	Type          Type      `json:"type"`
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	ClassroomID int       `json:"classroomId" validate:"required"`
	Type        Type      `json:"type" validate:"required"`
}

func (nt *NewTask) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	return core.Validate.Struct(nt)
}

// UpdateTask defines what may be modified on an existing Task.
type UpdateTask struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
}

func (ut *UpdateTask) Validate() error {
	ut.Title = core.CleanString(ut.Title)
	ut.Description = core.CleanString(ut.Description)
	return core.Validate.Struct(ut)
}
