package sitecontent

import "context"

// Hooks let callers extend item creation without touching the service.
// Hooks of one kind run in registration order.
type Hooks struct {
	BeforeCreate []BeforeCreateHook
	AfterCreate  []AfterCreateHook
	OnError      []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]any // Custom values passed between hooks
	StopChain bool           // Set to true to skip the remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]any),
	}
}

// BeforeCreateHook may adjust the request. Returning an error aborts the
// create with that error.
type BeforeCreateHook func(hctx *HookContext, req *CreateItemRequest) error

// AfterCreateHook is called once the item is stored.
type AfterCreateHook func(hctx *HookContext, item *Item) error

// ErrorHook is called when an operation fails
type ErrorHook func(hctx *HookContext, operation string, err error)

func (h *Hooks) executeBeforeCreate(ctx context.Context, req *CreateItemRequest) error {
	if h == nil || len(h.BeforeCreate) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforeCreate {
		if err := hook(hctx, req); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeAfterCreate(ctx context.Context, item *Item) error {
	if h == nil || len(h.AfterCreate) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterCreate {
		if err := hook(hctx, item); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeOnError(ctx context.Context, operation string, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}
