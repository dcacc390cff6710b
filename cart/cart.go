// Package cart owns the shopper's cart: one Engine per session holds the
// lines in memory, mirrors them to a local slot keyed by identity, and
// pushes every change to the remote mirror when a user is signed in.
//
// Local state is authoritative for the shopper. Remote writes are fire and
// forget; their failures are logged and never roll the local state back.
package cart

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock      = errors.New("cart: product is out of stock")
	ErrUnknownLine     = errors.New("cart: product is not in the cart")
	ErrStockLimit      = errors.New("cart: no more stock available for this product")
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")

	// ErrProductGone is returned by a StockReader for a product that no
	// longer exists in the catalog.
	ErrProductGone = errors.New("cart: product no longer exists")
)

// Line is one product and quantity in the cart.
type Line struct {
	ProductID uint            `json:"id"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand,omitempty"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
	MaxStock  int             `json:"max_stock"`
}

// Subtotal is UnitPrice * Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Product is what the catalog hands the cart on add-to-cart.
type Product struct {
	ID    uint
	Name  string
	Brand string
	Price decimal.Decimal
	Stock int
	Image string
}

// LocalStore persists one opaque payload per slot key. Load returns
// (nil, nil) for a missing slot.
type LocalStore interface {
	Load(key string) ([]byte, error)
	Save(key string, payload []byte) error
	Delete(key string) error
}

// RemoteMirror is the server-side copy of a signed-in user's cart. Load
// joins live product fields, so MaxStock reflects current stock.
type RemoteMirror interface {
	Load(ctx context.Context, userID string) ([]Line, error)
	Upsert(ctx context.Context, userID string, productID uint, quantity int) error
	Delete(ctx context.Context, userID string, productID uint) error
}

// StockReader reads the authoritative stock for a product.
type StockReader interface {
	Product(ctx context.Context, id uint) (Product, error)
}

type Logger interface {
	Printf(format string, v ...interface{})
}

type Options struct {
	Local  LocalStore
	Remote RemoteMirror // nil means local-only
	Stock  StockReader  // required by Increment
	Logger Logger

	// SyncTimeout bounds each remote call. Zero means 10s.
	SyncTimeout time.Duration
}

type Engine struct {
	local       LocalStore
	remote      RemoteMirror
	stock       StockReader
	logger      Logger
	syncTimeout time.Duration

	// transition serializes SetIdentity calls
	transition sync.Mutex

	mu       sync.Mutex
	identity Identity
	mounted  bool
	lines    []Line
	subs     map[int]func([]Line)
	nextSub  int

	// guestHeld is set while the guest slot has been merged for display
	// but not yet into the mirror.
	guestHeld bool

	inflight sync.WaitGroup
}

// New returns an engine with an empty guest cart. Call SetIdentity (or Bind)
// to load the persisted cart for the session.
func New(opts Options) *Engine {
	e := &Engine{
		local:       opts.Local,
		remote:      opts.Remote,
		stock:       opts.Stock,
		logger:      opts.Logger,
		syncTimeout: opts.SyncTimeout,
		subs:        make(map[int]func([]Line)),
	}
	if e.local == nil {
		e.local = NewMemoryStore()
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.syncTimeout <= 0 {
		e.syncTimeout = 10 * time.Second
	}
	return e
}

// Lines returns a copy of the current lines.
func (e *Engine) Lines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) Identity() Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity
}

func (e *Engine) TotalItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, l := range e.lines {
		n += l.Quantity
	}
	return n
}

func (e *Engine) TotalPrice() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, l := range e.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// AddLine adds qty units of p. An existing line grows to at most p.Stock;
// a new line starts at min(qty, p.Stock).
func (e *Engine) AddLine(ctx context.Context, p Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if p.Stock <= 0 {
		return ErrOutOfStock
	}

	e.mu.Lock()
	var quantity int
	if i := e.indexLocked(p.ID); i >= 0 {
		l := &e.lines[i]
		l.Name, l.Brand, l.UnitPrice, l.Image = p.Name, p.Brand, p.Price, p.Image
		l.MaxStock = p.Stock
		l.Quantity = min(l.Quantity+qty, l.MaxStock)
		quantity = l.Quantity
	} else {
		quantity = min(qty, p.Stock)
		e.lines = append(e.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Brand:     p.Brand,
			UnitPrice: p.Price,
			Quantity:  quantity,
			Image:     p.Image,
			MaxStock:  p.Stock,
		})
	}
	id, snap := e.commitLocked()
	e.mu.Unlock()

	e.notify(snap)
	e.pushUpsert(ctx, id, p.ID, quantity)
	return nil
}

// Increment is the "+" button: it re-reads stock first and never goes past
// it. If stock dropped below the current quantity the line is clamped and
// ErrStockLimit returned.
func (e *Engine) Increment(ctx context.Context, productID uint) error {
	e.mu.Lock()
	found := e.indexLocked(productID) >= 0
	e.mu.Unlock()
	if !found {
		return ErrUnknownLine
	}
	if e.stock == nil {
		return errors.New("cart: no stock reader configured")
	}

	p, err := e.stock.Product(ctx, productID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	i := e.indexLocked(productID)
	if i < 0 {
		e.mu.Unlock()
		return ErrUnknownLine
	}
	l := &e.lines[i]
	l.MaxStock = p.Stock
	result := error(nil)
	if l.Quantity >= p.Stock {
		l.Quantity = p.Stock
		result = ErrStockLimit
	} else {
		l.Quantity++
	}
	quantity := l.Quantity
	if quantity <= 0 {
		e.removeLocked(i)
	}
	id, snap := e.commitLocked()
	e.mu.Unlock()

	e.notify(snap)
	if quantity <= 0 {
		e.pushDelete(ctx, id, productID)
	} else {
		e.pushUpsert(ctx, id, productID, quantity)
	}
	return result
}

// SetQuantity replaces a line's quantity verbatim. qty <= 0 removes the line.
// Callers check stock first.
func (e *Engine) SetQuantity(ctx context.Context, productID uint, qty int) error {
	if qty <= 0 {
		e.RemoveLine(ctx, productID)
		return nil
	}

	e.mu.Lock()
	i := e.indexLocked(productID)
	if i < 0 {
		e.mu.Unlock()
		return ErrUnknownLine
	}
	e.lines[i].Quantity = qty
	id, snap := e.commitLocked()
	e.mu.Unlock()

	e.notify(snap)
	e.pushUpsert(ctx, id, productID, qty)
	return nil
}

// RemoveLine deletes the line locally and, best effort, remotely.
func (e *Engine) RemoveLine(ctx context.Context, productID uint) {
	e.mu.Lock()
	i := e.indexLocked(productID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	e.removeLocked(i)
	id, snap := e.commitLocked()
	e.mu.Unlock()

	e.notify(snap)
	e.pushDelete(ctx, id, productID)
}

// ApplyStock records a fresh stock reading for a line and clamps the
// quantity down to it (0 removes the line). It reports whether the quantity
// changed.
func (e *Engine) ApplyStock(ctx context.Context, productID uint, stock int) bool {
	e.mu.Lock()
	i := e.indexLocked(productID)
	if i < 0 {
		e.mu.Unlock()
		return false
	}
	l := &e.lines[i]
	l.MaxStock = stock
	if l.Quantity <= stock {
		_, snap := e.commitLocked()
		e.mu.Unlock()
		e.notify(snap)
		return false
	}

	quantity := max(stock, 0)
	if quantity == 0 {
		e.removeLocked(i)
	} else {
		l.Quantity = quantity
	}
	id, snap := e.commitLocked()
	e.mu.Unlock()

	e.notify(snap)
	if quantity == 0 {
		e.pushDelete(ctx, id, productID)
	} else {
		e.pushUpsert(ctx, id, productID, quantity)
	}
	return true
}

// Clear empties the cart and deletes the local slot of the current identity.
// The remote mirror is left alone.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.lines = nil
	e.deleteSlot(slotKey(e.identity))
	if e.guestHeld {
		e.deleteSlot(guestSlot)
		e.guestHeld = false
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// Subscribe registers fn to receive a snapshot after every change.
func (e *Engine) Subscribe(fn func([]Line)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
		})
	}
}

// Wait blocks until every in-flight remote sync has returned.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) indexLocked(productID uint) int {
	for i, l := range e.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) removeLocked(i int) {
	e.lines = append(e.lines[:i], e.lines[i+1:]...)
}

// commitLocked persists the lines and returns the identity and a snapshot.
func (e *Engine) commitLocked() (Identity, []Line) {
	e.persistLocked()
	return e.identity, e.snapshotLocked()
}

func (e *Engine) snapshotLocked() []Line {
	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

func (e *Engine) notify(snap []Line) {
	e.mu.Lock()
	fns := make([]func([]Line), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
