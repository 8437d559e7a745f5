package core

import "context"

type contextKey int

const priorOutputsKey contextKey = iota

// ContextWithPriorOutputs attaches the raw outputs of engines that
// already ran in the current sequential batch. Each engine receives its
// own snapshot, so later mutations never leak backwards.
func ContextWithPriorOutputs(ctx context.Context, outputs map[string]Output) context.Context {
	return context.WithValue(ctx, priorOutputsKey, outputs)
}

// PriorOutputsFromContext returns the outputs of engines that already
// ran in the current sequential batch, keyed by engine name. It returns
// nil outside a sequential batch and for the first engine in one.
func PriorOutputsFromContext(ctx context.Context) map[string]Output {
	m, _ := ctx.Value(priorOutputsKey).(map[string]Output)
	return m
}
