package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"writegood/internal/batch"
	"writegood/internal/ui"
)

type checkOutcome struct {
	result batch.Result
	err    error
}

// runCheckWithUI runs req while a progress view draws on stderr, so the
// rendered findings on stdout stay clean.
func runCheckWithUI(ctx context.Context, title string, files []string, req *batch.Request) (batch.Result, error) {
	if req == nil {
		return batch.Result{}, fmt.Errorf("missing batch request")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan batch.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = batch.ChannelSink{Ch: events}
		res, err := batch.Run(ctx, &reqCopy)
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	final, uiErr := program.Run()
	if uiErr != nil || ui.Interrupted(final) {
		// the view is gone; stop the run and unblock its sink
		cancel()
	}
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
