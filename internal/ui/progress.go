package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// spinnerInterval is how often the spinner advances a frame
const spinnerInterval = 120 * time.Millisecond

// Spinner animates an indeterminate progress bar while a long operation,
// such as an installer run, is in flight
type Spinner struct {
	bar  *progressbar.ProgressBar
	stop chan struct{}
	done sync.WaitGroup
}

// NewSpinner creates a spinner writing to w. A disabled spinner does nothing,
// which keeps non-interactive and JSON output clean.
func NewSpinner(w io.Writer, description string, enabled bool) *Spinner {
	if !enabled {
		return &Spinner{}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(10),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
	return &Spinner{bar: bar}
}

// Start begins animating until Stop
func (s *Spinner) Start() {
	if s.bar == nil || s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				_ = s.bar.Add(1)
			}
		}
	}()
}

// Stop halts the animation and clears the spinner line
func (s *Spinner) Stop() {
	if s.bar == nil || s.stop == nil {
		return
	}
	close(s.stop)
	s.done.Wait()
	s.stop = nil
	_ = s.bar.Clear()
}

// Run animates the spinner for the duration of fn
func (s *Spinner) Run(fn func() error) error {
	s.Start()
	defer s.Stop()
	return fn()
}
