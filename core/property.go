package core

import "context"

type PropertyStore interface {
	// Get decodes the stored value into value and reports whether key was set.
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}
