package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eaduck/client/core/session"
	"github.com/eaduck/client/core/submission"
)

var (
	student = session.Identity{ID: 1, Email: "aluno@eaduck.test", Role: session.RoleStudent, IsActive: true}
	teacher = session.Identity{ID: 2, Email: "prof@eaduck.test", Role: session.RoleTeacher, IsActive: true}

	now = time.Date(2024, time.May, 10, 15, 30, 0, 0, time.UTC)
)

func newTask(id int, title string, due time.Time) Task {
	return Task{ID: id, Title: title, DueDate: due, ClassroomID: 1, Type: TypeTarefa}
}

func TestStatusOf(t *testing.T) {
	past := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 0, 3)
	tsk := newTask(10, "Trabalho", past)

	ownSub := submission.Submission{ID: 1, TaskID: 10, StudentID: student.ID, SubmittedAt: now}
	otherSub := submission.Submission{ID: 2, TaskID: 10, StudentID: 99, SubmittedAt: now}

	tests := []struct {
		name   string
		task   Task
		subs   []submission.Submission
		viewer session.Identity
		want   Status
	}{
		{name: "overdue without submission", task: tsk, viewer: student, want: StatusAtrasada},
		{name: "own submission wins over due date", task: tsk, subs: []submission.Submission{ownSub}, viewer: student, want: StatusConcluida},
		{name: "someone else's submission does not count for a student", task: tsk, subs: []submission.Submission{otherSub}, viewer: student, want: StatusAtrasada},
		{name: "any submission counts for staff", task: tsk, subs: []submission.Submission{otherSub}, viewer: teacher, want: StatusConcluida},
		{name: "future due date is pending", task: newTask(11, "Prova", future), viewer: student, want: StatusPendente},
		{name: "due today is still pending", task: newTask(12, "Leitura", now.Add(-2*time.Hour)), viewer: student, want: StatusPendente},
		{name: "submission for another task is ignored", task: newTask(13, "Resenha", past), subs: []submission.Submission{ownSub}, viewer: student, want: StatusAtrasada},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.task, tt.subs, tt.viewer, now))
		})
	}
}

func TestStatusOfCrossZoneDueDate(t *testing.T) {
	saoPaulo := time.FixedZone("UTC-3", -3*60*60)

	t.Run("due today in the viewer's zone is still pending", func(t *testing.T) {
		// midnight UTC is the previous evening in UTC-3, but the due day and
		// the viewer's day are both 2024-06-01
		due := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
		local := time.Date(2024, time.June, 1, 22, 0, 0, 0, saoPaulo)
		assert.Equal(t, StatusPendente, StatusOf(newTask(20, "Ensaio", due), nil, student, local))
	})

	t.Run("due yesterday in the viewer's zone is overdue", func(t *testing.T) {
		due := time.Date(2024, time.May, 31, 12, 0, 0, 0, time.UTC)
		local := time.Date(2024, time.June, 1, 1, 0, 0, 0, saoPaulo)
		assert.Equal(t, StatusAtrasada, StatusOf(newTask(21, "Ensaio", due), nil, student, local))
	})
}

func TestApplyFilters(t *testing.T) {
	past := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 0, 3)

	t1 := Task{ID: 1, Title: "Biologia", DueDate: past, ClassroomID: 1, Type: TypeTarefa}
	t2 := Task{ID: 2, Title: "Álgebra", DueDate: future, ClassroomID: 1, Type: TypeProva}
	t3 := Task{ID: 3, Title: "Circuitos", DueDate: past, ClassroomID: 2, Type: TypeTarefa}
	tasks := []Task{t1, t2, t3}
	subs := []submission.Submission{{ID: 1, TaskID: 3, StudentID: student.ID}}

	t.Run("no criteria preserves snapshot order", func(t *testing.T) {
		got := ApplyFilters(tasks, subs, student, Criteria{}, now)
		assert.Equal(t, tasks, got)
	})

	t.Run("status filter matches computed status", func(t *testing.T) {
		got := ApplyFilters(tasks, subs, student, Criteria{Status: string(StatusAtrasada)}, now)
		assert.Equal(t, []Task{t1}, got) // t3 is concluida despite being overdue

		got = ApplyFilters(tasks, subs, student, Criteria{Status: string(StatusConcluida)}, now)
		assert.Equal(t, []Task{t3}, got)
	})

	t.Run("classroom and type filters", func(t *testing.T) {
		got := ApplyFilters(tasks, subs, student, Criteria{ClassroomID: 1}, now)
		assert.Equal(t, []Task{t1, t2}, got)

		got = ApplyFilters(tasks, subs, student, Criteria{Type: string(TypeProva)}, now)
		assert.Equal(t, []Task{t2}, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		c := Criteria{Status: string(StatusPendente), ClassroomID: 1}
		once := ApplyFilters(tasks, subs, student, c, now)
		twice := ApplyFilters(once, subs, student, c, now)
		assert.Equal(t, once, twice)
	})

	t.Run("alphabetical sort uses pt-BR collation", func(t *testing.T) {
		got := ApplyFilters(tasks, subs, student, Criteria{Alphabetical: true}, now)
		assert.Equal(t, []Task{t2, t1, t3}, got) // Álgebra before Biologia
	})
}

func TestSummarize(t *testing.T) {
	past := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 0, 3)

	tasks := []Task{
		newTask(1, "A", past),   // atrasada
		newTask(2, "B", future), // pendente
		newTask(3, "C", past),   // concluida via submission
	}
	subs := []submission.Submission{{ID: 1, TaskID: 3, StudentID: student.ID}}

	sum := Summarize(tasks, subs, student, now)
	assert.Equal(t, Summary{Total: 3, Concluidas: 1, Pendentes: 1, Atrasadas: 1}, sum)

	// summary is computed over the filtered list, not the full snapshot
	filtered := ApplyFilters(tasks, subs, student, Criteria{Status: string(StatusPendente)}, now)
	sum = Summarize(filtered, subs, student, now)
	assert.Equal(t, Summary{Total: 1, Pendentes: 1}, sum)
}
