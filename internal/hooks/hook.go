// Package hooks defines the after-calculation extension point and the
// registry host adapters look hooks up in.
package hooks

import (
	"context"
	"sort"
	"sync"

	"spreadsheet-hooks/internal/models"
)

// AfterCalculationHook runs once a spreadsheet evaluation has produced its
// outputs. It may rewrite resp in place and returns the verdict for the host.
// Implementations never return nil and never panic on malformed input.
type AfterCalculationHook interface {
	AfterCalculation(ctx context.Context, req *models.CalculationRequest, resp *models.CalculationResponse) *models.ActionableResponse
}

// Registry maps hook names to implementations. Disabled hooks stay registered
// but are not returned by Lookup.
type Registry struct {
	mu       sync.RWMutex
	hooks    map[string]AfterCalculationHook
	disabled map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		hooks:    make(map[string]AfterCalculationHook),
		disabled: make(map[string]bool),
	}
}

// Register adds or replaces the hook under name.
func (r *Registry) Register(name string, hook AfterCalculationHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = hook
}

func (r *Registry) SetEnabled(name string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if enabled {
		delete(r.disabled, name)
	} else {
		r.disabled[name] = true
	}
}

// Lookup returns the hook registered under name if it is enabled.
func (r *Registry) Lookup(name string) (AfterCalculationHook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.disabled[name] {
		return nil, false
	}
	hook, ok := r.hooks[name]
	return hook, ok
}

// Names returns the enabled hook names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.hooks))
	for name := range r.hooks {
		if !r.disabled[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// HookFunc adapts a plain function to AfterCalculationHook.
type HookFunc func(ctx context.Context, req *models.CalculationRequest, resp *models.CalculationResponse) *models.ActionableResponse

func (f HookFunc) AfterCalculation(ctx context.Context, req *models.CalculationRequest, resp *models.CalculationResponse) *models.ActionableResponse {
	return f(ctx, req, resp)
}
