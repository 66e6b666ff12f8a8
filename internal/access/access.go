// Package access guards path-bearing tool calls behind the provider's
// allowed roots. The guard wraps a service provider: path parameters are
// verified by lexical containment before the tool runs, so a denied call
// never reaches the wrapped provider.
package access

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tidyfs/tidyfs/internal/fs"
	"github.com/tidyfs/tidyfs/internal/infrastructure/logging"
	"github.com/tidyfs/tidyfs/internal/service"
	"github.com/tidyfs/tidyfs/internal/shared/paths"
	"github.com/tidyfs/tidyfs/internal/shared/types"
)

// Guard wraps a provider and denies tool calls whose path parameter lies
// outside every allowed root. Tools without a path parameter pass through
// untouched. An empty root list, or a failure to obtain the roots, denies
// all path-bearing calls.
type Guard struct {
	inner service.Provider
	roots fs.Provider
	log   *logging.Logger
}

// Wrap builds a guard around a provider. roots supplies AllowedRoots;
// it is normally the same provider the wrapped service operates on.
func Wrap(inner service.Provider, roots fs.Provider, log *logging.Logger) *Guard {
	if log == nil {
		log = logging.NewNop()
	}
	return &Guard{inner: inner, roots: roots, log: log}
}

// Definition returns the wrapped provider's metadata.
func (g *Guard) Definition() types.Service {
	return g.inner.Definition()
}

// Execute verifies the path parameter, then delegates.
func (g *Guard) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	raw, present := params["path"]
	if !present {
		return g.inner.Execute(ctx, toolID, params, appCtx)
	}

	target, ok := raw.(string)
	if !ok || target == "" {
		return deny("path parameter must be a non-empty string")
	}

	allowed, err := g.roots.AllowedRoots(ctx)
	if err != nil {
		g.log.Error("allowed roots lookup failed, denying",
			zap.String("tool", toolID),
			zap.Error(err))
		return deny(fmt.Sprintf("access check failed: %v", err))
	}

	if !paths.ContainsAny(allowed, target) {
		g.log.Warn("path outside allowed roots",
			zap.String("tool", toolID),
			zap.String("path", target))
		return deny(fmt.Sprintf("%s is not in the allowed directories list", target))
	}

	return g.inner.Execute(ctx, toolID, params, appCtx)
}

func deny(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}
