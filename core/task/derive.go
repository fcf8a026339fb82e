package task

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/eaduck/client/core/session"
	"github.com/eaduck/client/core/submission"
)

// FilterAll disables a criterion.
const FilterAll = "all"

// Criteria is the viewer-local filter/sort selection. It is transient and
// owned by the presentation layer.
type Criteria struct {
	Status       string // "all" or a Status value
	ClassroomID  int    // 0 = all
	Type         string // "all" or a Type value
	Alphabetical bool
}

// StatusOf derives a task's status from the submissions snapshot. A matching
// submission wins over the due date; the due-date comparison is at day
// granularity, overdue meaning "today" strictly after the due day.
// A matching submission is the viewer's own for a student, any for staff.
func StatusOf(t Task, subs []submission.Submission, viewer session.Identity, now time.Time) Status {
	if hasMatchingSubmission(t, subs, viewer) {
		return StatusConcluida
	}
	// both days are taken in the viewer's location; a due date stored in
	// another zone must not shift across a day boundary
	if truncateDay(now).After(truncateDay(t.DueDate.In(now.Location()))) {
		return StatusAtrasada
	}
	return StatusPendente
}

func hasMatchingSubmission(t Task, subs []submission.Submission, viewer session.Identity) bool {
	for _, s := range subs {
		if s.TaskID != t.ID {
			continue
		}
		if viewer.IsStudent() && s.StudentID != viewer.ID {
			continue
		}
		return true
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ApplyFilters produces the filtered (and optionally sorted) view of a tasks
// snapshot. Status equality is checked against the computed status, not a
// stored field; without sorting, the snapshot order is preserved.
func ApplyFilters(tasks []Task, subs []submission.Submission, viewer session.Identity, c Criteria, now time.Time) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if c.Status != "" && c.Status != FilterAll && string(StatusOf(t, subs, viewer, now)) != c.Status {
			continue
		}
		if c.ClassroomID != 0 && t.ClassroomID != c.ClassroomID {
			continue
		}
		if c.Type != "" && c.Type != FilterAll && string(t.Type) != c.Type {
			continue
		}
		out = append(out, t)
	}
	if c.Alphabetical {
		SortAlphabetical(out)
	}
	return out
}

// SortAlphabetical sorts tasks by title, stable, using pt-BR collation.
func SortAlphabetical(tasks []Task) {
	coll := collate.New(language.BrazilianPortuguese)
	sort.SliceStable(tasks, func(i, j int) bool {
		return coll.CompareString(tasks[i].Title, tasks[j].Title) < 0
	})
}

// Summary holds the counters shown above the task list. They are always
// recomputed from the currently filtered list, never from the full snapshot.
type Summary struct {
	Total      int
	Concluidas int
	Pendentes  int
	Atrasadas  int
}

func Summarize(filtered []Task, subs []submission.Submission, viewer session.Identity, now time.Time) Summary {
	sum := Summary{Total: len(filtered)}
	for _, t := range filtered {
		switch StatusOf(t, subs, viewer, now) {
		case StatusConcluida:
			sum.Concluidas++
		case StatusAtrasada:
			sum.Atrasadas++
		default:
			sum.Pendentes++
		}
	}
	return sum
}
