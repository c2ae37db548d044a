// Package fetch tracks the lifecycle of a single logical asynchronous request.
//
// A Manager owns one fetch state (loading, canceled, data, error, pending
// arguments) and mutates it through exactly two operations, Trigger and
// Cancel, plus the resolution that runs when the injected Operation settles.
//
// Every Trigger issues a new generation token. When an operation settles, its
// token is compared against the current one and the result is discarded if a
// newer Trigger or a Cancel happened in between. Responses that arrive out of
// order therefore never overwrite newer state.
//
// Basic Usage:
//
//	m := fetch.New(func(ctx context.Context, q string) ([]Item, error) {
//	    return api.Search(ctx, q)
//	}, fetch.WithDispatcher(loop))
//
//	m.Trigger("golang")
//	m.Cancel()
//
//	snap := m.Snapshot()
//	switch snap.Status() {
//	case fetch.StatusLoading:
//	case fetch.StatusResolved:
//	    render(snap.Data)
//	case fetch.StatusFailed:
//	    renderError(snap.Err)
//	}
//
// Cancellation is cooperative. Cancel does not stop the running Operation,
// it only makes its eventual result moot. WithAbortOnCancel additionally
// cancels the context handed to the Operation.
package fetch
