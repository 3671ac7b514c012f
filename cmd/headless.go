package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"cardtap/internal/ui/face"
)

var nowFunc = time.Now

func runAdvance(ctx context.Context, rt *runtime, out io.Writer) error {
	transition, err := rt.controller.Advance(ctx)
	if err != nil {
		return err
	}
	if err := rt.store.Flush(ctx); err != nil {
		return err
	}
	line, err := describe(ctx, rt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n%s\n", transition, line)
	return err
}

func runStatus(ctx context.Context, rt *runtime, out io.Writer) error {
	line, err := describe(ctx, rt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, line)
	return err
}

func describe(ctx context.Context, rt *runtime) (string, error) {
	state, err := rt.store.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	now := nowFunc()
	return fmt.Sprintf("%s (status %d): %s", face.PhaseTitle(state, now), state.Status, face.DetailText(state, now)), nil
}
