package progress

// State of one task in a run
type State int

const (
	StatePending State = iota
	StateRunning
	StateDone
	StateFailed
)

type stepStatus struct {
	name   string
	state  State
	detail string
	err    error
}

// tracker follows a sequence of tasks. The first failure ends the run and
// leaves later tasks pending.
type tracker struct {
	title   string
	steps   []stepStatus
	current int
}

func newTracker(title string, tasks []Task) *tracker {
	steps := make([]stepStatus, len(tasks))
	for i, t := range tasks {
		steps[i] = stepStatus{name: t.Name}
	}
	return &tracker{title: title, steps: steps}
}

func (t *tracker) start() {
	if t.current < len(t.steps) {
		t.steps[t.current].state = StateRunning
	}
}

func (t *tracker) finish(detail string) {
	if t.current < len(t.steps) {
		t.steps[t.current].state = StateDone
		t.steps[t.current].detail = detail
		t.current++
	}
}

func (t *tracker) fail(err error) {
	if t.current < len(t.steps) {
		t.steps[t.current].state = StateFailed
		t.steps[t.current].err = err
	}
}

// complete reports whether every task finished
func (t *tracker) complete() bool {
	return t.current >= len(t.steps)
}

func (t *tracker) fraction() float64 {
	if len(t.steps) == 0 {
		return 1
	}
	return float64(t.current) / float64(len(t.steps))
}
