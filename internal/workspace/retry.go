package workspace

import (
	"context"

	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
	"github.com/shelfsync/shelfsync/internal/retry"
)

// retrying applies one retry policy to every call of the wrapped workspace.
type retrying struct {
	ws     Workspace
	policy retry.Policy
}

// WithRetry wraps ws so that every read and write is retried under policy.
// Errors that survive the policy are returned as destination errors.
func WithRetry(ws Workspace, policy retry.Policy) Workspace {
	return &retrying{ws: ws, policy: policy}
}

func (r *retrying) Query(ctx context.Context, databaseID string, filter *Filter, cursor string, pageSize int) (*QueryResult, error) {
	return call(ctx, r.policy, "query database "+databaseID, func(ctx context.Context) (*QueryResult, error) {
		return r.ws.Query(ctx, databaseID, filter, cursor, pageSize)
	})
}

func (r *retrying) CreatePage(ctx context.Context, databaseID string, props Properties, icon, cover string) (*Page, error) {
	return call(ctx, r.policy, "create page in "+databaseID, func(ctx context.Context) (*Page, error) {
		return r.ws.CreatePage(ctx, databaseID, props, icon, cover)
	})
}

func (r *retrying) UpdatePage(ctx context.Context, pageID string, props Properties, cover string) (*Page, error) {
	return call(ctx, r.policy, "update page "+pageID, func(ctx context.Context) (*Page, error) {
		return r.ws.UpdatePage(ctx, pageID, props, cover)
	})
}

func (r *retrying) RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error) {
	return call(ctx, r.policy, "retrieve database "+databaseID, func(ctx context.Context) (*Database, error) {
		return r.ws.RetrieveDatabase(ctx, databaseID)
	})
}

func (r *retrying) UpdateDatabase(ctx context.Context, databaseID string, schema Schema) (*Database, error) {
	return call(ctx, r.policy, "update database "+databaseID, func(ctx context.Context) (*Database, error) {
		return r.ws.UpdateDatabase(ctx, databaseID, schema)
	})
}

func (r *retrying) CreateDatabase(ctx context.Context, parentPageID, title, icon string, schema Schema) (*Database, error) {
	return call(ctx, r.policy, "create database "+title, func(ctx context.Context) (*Database, error) {
		return r.ws.CreateDatabase(ctx, parentPageID, title, icon, schema)
	})
}

func (r *retrying) ListChildren(ctx context.Context, blockID string) ([]Block, error) {
	return call(ctx, r.policy, "list children of "+blockID, func(ctx context.Context) ([]Block, error) {
		return r.ws.ListChildren(ctx, blockID)
	})
}

func call[T any](ctx context.Context, p retry.Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	v, err := retry.Value(ctx, p, op, fn)
	if err != nil {
		var zero T
		var domainErr *domainerrors.Error
		if domainerrors.As(err, &domainErr) && !domainErr.Code.Retryable() {
			return zero, err
		}
		return zero, domainerrors.Wrap(err, domainerrors.CodeDestination, op)
	}
	return v, nil
}
