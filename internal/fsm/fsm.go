// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package fsm implements a minimal finite state machine in the style of
// Rob Pike's "Lexical Scanning in Go": a state is a function returning the
// next state.
package fsm

import "context"

// State is one step of the machine. It receives the machine's arguments and
// returns them, possibly modified, together with the state to run next.
// A nil next state ends the machine successfully; a non-nil error ends it
// immediately.
type State[T any] func(ctx context.Context, args T) (T, State[T], error)

// Run drives the machine from start until a state returns a nil next state
// or an error. Cancellation of ctx is checked between states; a state that
// blocks is expected to honor ctx itself. The arguments as left by the last
// executed state are always returned.
func Run[T any](ctx context.Context, args T, start State[T]) (T, error) {
	for current := start; current != nil; {
		if err := ctx.Err(); err != nil {
			return args, err
		}

		var err error

		args, current, err = current(ctx, args)
		if err != nil {
			return args, err
		}
	}

	return args, nil
}
