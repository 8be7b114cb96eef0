package cmd

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/minepkg/launchcore/internals/launcher"
)

type progressMsg int

type preparedMsg struct {
	result *launcher.Result
	err    error
}

// fancyPrepareUI shows a progress bar while a version is prepared
type fancyPrepareUI struct {
	bar     progress.Model
	percent float64
	cancel  context.CancelFunc
	done    *preparedMsg
}

func (m *fancyPrepareUI) Init() tea.Cmd {
	return nil
}

func (m *fancyPrepareUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		// two batches report at the same time, only move forward
		if p := float64(msg) / 100; p > m.percent || p == 0 {
			m.percent = p
		}
	case preparedMsg:
		m.done = &msg
		return m, tea.Quit
	case tea.WindowSizeMsg:
		width := msg.Width - 20
		if width > 60 {
			width = 60
		}
		if width > 10 {
			m.bar.Width = width
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Prepare returns soon after and quits the program
			m.cancel()
		}
	}
	return m, nil
}

func (m *fancyPrepareUI) View() string {
	return pipeText.Render("Downloading "+m.bar.ViewAs(m.percent)) + "\n"
}

// fancyPrepare runs l.Prepare with a progress bar
func fancyPrepare(ctx context.Context, l *launcher.Launcher, id string) (*launcher.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ui := &fancyPrepareUI{
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel: cancel,
	}
	p := tea.NewProgram(ui)

	l.Downloads.OnProgress = func(percent int) {
		p.Send(progressMsg(percent))
	}
	defer func() { l.Downloads.OnProgress = nil }()

	go func() {
		result, err := l.Prepare(ctx, id)
		p.Send(preparedMsg{result, err})
	}()

	if _, err := p.Run(); err != nil {
		return nil, err
	}
	if ui.done == nil {
		return nil, context.Canceled
	}
	return ui.done.result, ui.done.err
}
