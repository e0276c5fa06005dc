package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/addonctl/internal/ui/styles"
)

// Task is one step of a multi-step operation. The returned detail is shown
// next to the completed step.
type Task struct {
	Name string
	Run  func(ctx context.Context) (detail string, err error)
}

// Model runs tasks in order and renders their state. The first failure
// stops the sequence.
type Model struct {
	ctx     context.Context
	tasks   []Task
	tracker *tracker
	spinner spinner.Model
	bar     progress.Model
	done    bool
	err     error
}

// NewModel creates a model running tasks in order
func NewModel(ctx context.Context, title string, tasks ...Task) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return Model{
		ctx:     ctx,
		tasks:   tasks,
		tracker: newTracker(title, tasks),
		spinner: s,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
}

// taskDoneMsg carries the outcome of the running task
type taskDoneMsg struct {
	detail string
	err    error
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize(), m.next())
}

// next starts the current task, or quits when none are left
func (m Model) next() tea.Cmd {
	if m.tracker.complete() {
		return quitAfter(150 * time.Millisecond)
	}
	m.tracker.start()

	task := m.tasks[m.tracker.current]
	ctx := m.ctx
	return func() tea.Msg {
		detail, err := task.Run(ctx)
		return taskDoneMsg{detail: detail, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-10, 40)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case taskDoneMsg:
		if msg.err != nil {
			m.tracker.fail(msg.err)
			m.err = msg.err
			m.done = true
			return m, quitAfter(500 * time.Millisecond)
		}
		m.tracker.finish(msg.detail)
		setBar := m.bar.SetPercent(m.tracker.fraction())
		if m.tracker.complete() {
			m.done = true
			return m, tea.Batch(setBar, quitAfter(300*time.Millisecond))
		}
		return m, tea.Batch(setBar, m.next())
	}

	return m, nil
}

func quitAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return tea.Quit()
	})
}

func (m Model) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Foreground(styles.Text).Bold(true)
	b.WriteString(title.Render(m.tracker.title) + "\n\n")

	for _, step := range m.tracker.steps {
		mark := icon(step.state)
		if step.state == StateRunning {
			mark = m.spinner.View()
		}
		b.WriteString(fmt.Sprintf("  %s %s", mark, textStyle(step.state).Render(step.name)))
		switch {
		case step.state == StateDone && step.detail != "":
			b.WriteString(styles.MutedText.Render(" - " + step.detail))
		case step.state == StateFailed && step.err != nil:
			b.WriteString(styles.MutedText.Render(" - " + step.err.Error()))
		}
		b.WriteString("\n")
	}

	if len(m.tracker.steps) > 1 {
		b.WriteString("\n  " + m.bar.View() + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// Run executes tasks with the progress display attached to the terminal and
// returns the first task error
func Run(ctx context.Context, title string, tasks ...Task) error {
	final, err := tea.NewProgram(NewModel(ctx, title, tasks...), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	return final.(Model).err
}
