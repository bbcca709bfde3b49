package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

func withEnv(ctx context.Context, e *env) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, envKey{}, e)
}

func envFrom(cmd *cobra.Command) (*env, error) {
	if cmd.Context() != nil {
		if e, ok := cmd.Context().Value(envKey{}).(*env); ok {
			return e, nil
		}
	}
	return nil, errors.New("command environment not initialized")
}
