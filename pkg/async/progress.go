// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package async

// Progress reports incremental updates of a long running operation over a
// channel. The zero value is invalid, use [NewProgress].
type Progress[T comparable] struct {
	progressChannel chan T
}

// NewProgress creates a new instance of Progress.
func NewProgress[T comparable]() *Progress[T] {
	return &Progress[T]{
		progressChannel: make(chan T),
	}
}

// Progress returns the read side of the underlying channel. The channel is
// closed when [Progress.Done] is called, so a `range` loop may be used to
// consume all updates.
func (p *Progress[T]) Progress() <-chan T {
	return p.progressChannel
}

// Done closes the underlying channel, signaling no more progress will be
// reported. Calling SetProgress after Done panics.
func (p *Progress[T]) Done() {
	close(p.progressChannel)
}

// SetProgress reports a progress update to the channel.
func (p *Progress[T]) SetProgress(progress T) {
	p.progressChannel <- progress
}

// RunWithProgress runs f with a background goroutine forwarding each progress
// update to observer. It returns once f has completed and every reported
// update has been observed.
func RunWithProgress[T comparable, R any](
	observer func(T),
	f func(*Progress[T]) (R, error),
) (R, error) {
	progress := NewProgress[T]()
	done := make(chan struct{})
	go func() {
		for p := range progress.Progress() {
			observer(p)
		}
		close(done)
	}()
	res, err := f(progress)
	progress.Done()
	<-done
	return res, err
}
