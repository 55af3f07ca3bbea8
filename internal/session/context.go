package session

import "context"

type slotKey struct{}

// WithSlot binds a session slot (chat id, CLI profile) to ctx.
func WithSlot(ctx context.Context, slot string) context.Context {
	return context.WithValue(ctx, slotKey{}, slot)
}

// SlotFrom returns the slot bound by WithSlot.
func SlotFrom(ctx context.Context) (string, bool) {
	slot, ok := ctx.Value(slotKey{}).(string)
	return slot, ok && slot != ""
}
