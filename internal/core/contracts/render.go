package contracts

// RenderStore is the render-state sink: whatever it holds is what the UI
// draws. Publish must be cheap and non-blocking; a store that has been
// torn down (screen unmounted) drops writes instead of failing.
type RenderStore interface {
	Publish(recordID string, value any)
}
