package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// spinner provides a simple text-based progress indicator on stderr.
type spinner struct {
	out     io.Writer
	message string
	stop    chan bool
	done    chan bool
	mu      sync.Mutex
	active  bool
}

func newSpinner(out io.Writer, message string) (s *spinner) {
	s = &spinner{
		out:     out,
		message: message,
		stop:    make(chan bool),
		done:    make(chan bool),
	}
	return s
}

func (s *spinner) start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.mu.Unlock()

	go func() {
		chars := []string{"|", "/", "-", "\\"}
		i := 0
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		width := 0
		for {
			select {
			case <-s.stop:
				// Clear the line and leave the cursor at its start
				fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", width))
				s.done <- true
				return
			case <-ticker.C:
				line := fmt.Sprintf("%s %s", s.currentMessage(), chars[i%len(chars)])
				if len(line) > width {
					width = len(line)
				}
				fmt.Fprintf(s.out, "\r%-*s", width, line)
				i++
			}
		}
	}()
}

// setMessage replaces the text shown next to the spinner.
func (s *spinner) setMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *spinner) currentMessage() (message string) {
	s.mu.Lock()
	message = s.message
	s.mu.Unlock()
	return message
}

func (s *spinner) stopSpinner() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.stop <- true
	<-s.done

	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}
