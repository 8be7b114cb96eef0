package launcher

import (
	"fmt"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// MaybeSpinner is a spinner that can also just log text
type MaybeSpinner struct {
	Spin    bool
	Spinner *spinner.Spinner
	Msg     string

	mu   sync.Mutex
	last string
}

// Start might start the spinner
func (m *MaybeSpinner) Start() {
	if m.Spin {
		m.Spinner.Start()
	} else if m.Msg != "" {
		fmt.Println(m.Msg)
	}
}

// Stop will stop the spinner
func (m *MaybeSpinner) Stop() {
	m.Spinner.Stop()
}

// Update will update the spinner text. Without spinning, repeated texts are only printed once
func (m *MaybeSpinner) Update(t string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Spinner.Suffix = " " + t

	if !m.Spin && t != m.last {
		m.last = t
		fmt.Println(t)
	}
}

// Progress is a downloadmgr OnProgress callback
func (m *MaybeSpinner) Progress(msg string) func(p int) {
	return func(p int) {
		if !m.Spin && p%25 != 0 {
			return
		}
		m.Update(fmt.Sprintf("%s %d%%", msg, p))
	}
}

// NewMaybeSpinner will return a new MaybeSpinner
func NewMaybeSpinner(spin bool) *MaybeSpinner {
	s := &MaybeSpinner{
		Spin:    spin,
		Spinner: spinner.New(spinner.CharSets[9], 300*time.Millisecond),
	}
	s.Spinner.Prefix = " "
	return s
}
