package domain

// Status is the kanban column an experiment sits in.
type Status string

const (
	StatusIdea       Status = "idea"
	StatusHypothesis Status = "hypothesis"
	StatusRunning    Status = "running"
	StatusComplete   Status = "complete"
	StatusLearnings  Status = "learnings"
)

// Statuses lists every status in board order.
var Statuses = []Status{StatusIdea, StatusHypothesis, StatusRunning, StatusComplete, StatusLearnings}

var statusLabels = map[Status]string{
	StatusIdea:       "Idea/Backlog",
	StatusHypothesis: "Prioritized",
	StatusRunning:    "In Progress",
	StatusComplete:   "Complete",
	StatusLearnings:  "Learnings",
}

// ParseStatus converts s to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", invalid("status", "unknown status "+s)
	}
	return st, nil
}

// Valid reports whether s is one of the five statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display name of the status.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Finished reports whether the status allows a result.
func (s Status) Finished() bool {
	return s == StatusComplete || s == StatusLearnings
}

// SetStatus moves the experiment to any status. The stored result is kept as is.
func (e *Experiment) SetStatus(s Status) error {
	if e.Locked {
		return ErrLocked
	}
	if !s.Valid() {
		return invalid("status", "unknown status "+string(s))
	}
	if e.Status == s {
		return nil
	}
	e.Status = s
	e.touch()
	return nil
}

// Archive moves the experiment to learnings and marks it archived.
func (e *Experiment) Archive() error {
	if e.Locked {
		return ErrLocked
	}
	if e.Archived && e.Status == StatusLearnings {
		return nil
	}
	e.Status = StatusLearnings
	e.Archived = true
	e.touch()
	return nil
}

// Complete archives and locks the experiment. Once locked, only comments and
// deletion are accepted.
func (e *Experiment) Complete(requireResult bool) error {
	if e.Locked {
		return ErrLocked
	}
	if requireResult && e.Result == ResultNone {
		return ErrResultRequired
	}
	e.Status = StatusLearnings
	e.Archived = true
	e.Locked = true
	e.touch()
	return nil
}

// RemoveByID returns exps without the experiment with the given id.
func RemoveByID(exps []*Experiment, id string) []*Experiment {
	out := make([]*Experiment, 0, len(exps))
	for _, e := range exps {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}
