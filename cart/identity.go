package cart

import (
	"context"
	"fmt"
)

// Identity is either the anonymous guest or a signed-in user.
type Identity struct {
	userID string
}

func Guest() Identity { return Identity{} }

func User(id string) Identity { return Identity{userID: id} }

func (i Identity) SignedIn() bool { return i.userID != "" }

func (i Identity) UserID() string { return i.userID }

func (i Identity) String() string {
	if !i.SignedIn() {
		return "guest"
	}
	return "user:" + i.userID
}

// IdentitySource is whatever knows who is signed in: an auth session, a
// token file, a test fake.
type IdentitySource interface {
	Current() Identity
	OnChange(fn func(Identity)) (unsubscribe func())
}

// Bind loads the cart for src's current identity and re-runs the
// transition every time src reports a change.
func (e *Engine) Bind(src IdentitySource) (unbind func()) {
	e.SetIdentity(context.Background(), src.Current())
	return src.OnChange(func(next Identity) {
		e.SetIdentity(context.Background(), next)
	})
}

// SetIdentity moves the engine to next:
//
//   - leaving a signed-in user deletes that user's local slot;
//   - a user cart is loaded from the remote mirror, falling back to the
//     user's local slot when the mirror is unreachable;
//   - a non-empty guest slot is merged into the user cart exactly once and
//     then deleted. When the mirror was unreachable the merged lines are
//     shown but the guest slot is kept, so the merge is redone on the next
//     successful load.
//
// Setting the identity the engine already has is a no-op.
func (e *Engine) SetIdentity(ctx context.Context, next Identity) {
	e.transition.Lock()
	defer e.transition.Unlock()

	e.mu.Lock()
	prev, mounted := e.identity, e.mounted
	e.mu.Unlock()
	if mounted && prev == next {
		return
	}

	if mounted && prev.SignedIn() {
		e.deleteSlot(slotKey(prev))
	}

	lines, synced := e.loadFor(ctx, next)

	var pushes []pendingPush
	held := false
	if next.SignedIn() {
		if guest := e.readSlot(guestSlot); len(guest) > 0 {
			lines, pushes = mergeLines(lines, guest)
			if synced {
				e.deleteSlot(guestSlot)
				e.logger.Printf("🛒 merged %d guest line(s) into cart of user %s", len(guest), next.UserID())
			} else {
				pushes, held = nil, true
				e.logger.Printf("⚠️ cart: keeping %d guest line(s) for user %s until the mirror is reachable", len(guest), next.UserID())
			}
		}
	}

	e.mu.Lock()
	e.identity = next
	e.mounted = true
	e.guestHeld = held
	e.lines = lines
	_, snap := e.commitLocked()
	e.mu.Unlock()

	e.notify(snap)
	for _, p := range pushes {
		if p.quantity <= 0 {
			e.pushDelete(ctx, next, p.productID)
		} else {
			e.pushUpsert(ctx, next, p.productID, p.quantity)
		}
	}
}

// loadFor reports synced=false only when a mirror is configured and could
// not be read.
func (e *Engine) loadFor(ctx context.Context, id Identity) (lines []Line, synced bool) {
	if !id.SignedIn() {
		return e.readSlot(guestSlot), true
	}
	if e.remote == nil {
		return e.readSlot(slotKey(id)), true
	}
	ctx, cancel := context.WithTimeout(ctx, e.syncTimeout)
	defer cancel()
	lines, err := e.remote.Load(ctx, id.UserID())
	if err == nil {
		return normalize(lines), true
	}
	e.logger.Printf("⚠️ cart: remote load for user %s failed, using local copy: %v", id.UserID(), err)
	return e.readSlot(slotKey(id)), false
}

type pendingPush struct {
	productID uint
	quantity  int
}

// mergeLines folds guest into user. A product in both ends at
// min(g+u, MaxStock) where MaxStock is the user line's current stock;
// a guest-only product is appended unchanged.
func mergeLines(user, guest []Line) ([]Line, []pendingPush) {
	merged := make([]Line, len(user))
	copy(merged, user)
	var pushes []pendingPush

	for _, g := range guest {
		i := -1
		for j := range merged {
			if merged[j].ProductID == g.ProductID {
				i = j
				break
			}
		}
		if i < 0 {
			merged = append(merged, g)
			pushes = append(pushes, pendingPush{g.ProductID, g.Quantity})
			continue
		}

		q := min(merged[i].Quantity+g.Quantity, merged[i].MaxStock)
		if q <= 0 {
			merged = append(merged[:i], merged[i+1:]...)
			pushes = append(pushes, pendingPush{g.ProductID, 0})
			continue
		}
		merged[i].Quantity = q
		pushes = append(pushes, pendingPush{g.ProductID, q})
	}
	return merged, pushes
}

func normalize(lines []Line) []Line {
	out := lines[:0:0]
	for _, l := range lines {
		if l.ProductID == 0 || l.Quantity <= 0 {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (e *Engine) pushUpsert(ctx context.Context, id Identity, productID uint, quantity int) {
	e.push(ctx, id, productID, fmt.Sprintf("upsert product %d", productID), func(ctx context.Context) error {
		return e.remote.Upsert(ctx, id.UserID(), productID, quantity)
	})
}

func (e *Engine) pushDelete(ctx context.Context, id Identity, productID uint) {
	e.push(ctx, id, productID, fmt.Sprintf("delete product %d", productID), func(ctx context.Context) error {
		return e.remote.Delete(ctx, id.UserID(), productID)
	})
}

// push runs fn in the background with its own deadline. The caller's
// cancellation does not reach it.
func (e *Engine) push(ctx context.Context, id Identity, productID uint, what string, fn func(context.Context) error) {
	if e.remote == nil || !id.SignedIn() {
		return
	}
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.syncTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			e.logger.Printf("⚠️ cart: remote %s for user %s failed: %v", what, id.UserID(), err)
			return
		}
		e.settleGuest(id, productID)
	}()
}

// settleGuest drops productID from a held guest slot once the user's line
// for it has reached the mirror, so the next merge does not count it twice.
func (e *Engine) settleGuest(id Identity, productID uint) {
	e.transition.Lock()
	defer e.transition.Unlock()

	e.mu.Lock()
	held := e.guestHeld && e.identity == id
	e.mu.Unlock()
	if !held {
		return
	}

	guest := e.readSlot(guestSlot)
	kept := guest[:0:0]
	for _, l := range guest {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	switch {
	case len(kept) == len(guest):
	case len(kept) == 0:
		e.deleteSlot(guestSlot)
		e.mu.Lock()
		e.guestHeld = false
		e.mu.Unlock()
	default:
		e.writeSlot(guestSlot, kept)
	}
}
