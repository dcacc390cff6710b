package cart

import (
	"encoding/json"
	"sync"
)

const guestSlot = "cart:guest"

func slotKey(id Identity) string {
	if !id.SignedIn() {
		return guestSlot
	}
	return "cart:user:" + id.UserID()
}

// EncodeLines is the payload written to a local slot.
func EncodeLines(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// DecodeLines parses a slot payload. Invalid lines are dropped.
func DecodeLines(payload []byte) ([]Line, error) {
	var lines []Line
	if err := json.Unmarshal(payload, &lines); err != nil {
		return nil, err
	}
	return normalize(lines), nil
}

// readSlot never fails: unreadable or malformed slots read as empty.
func (e *Engine) readSlot(key string) []Line {
	payload, err := e.local.Load(key)
	if err != nil {
		e.logger.Printf("⚠️ cart: reading slot %s: %v", key, err)
		return nil
	}
	if len(payload) == 0 {
		return nil
	}
	lines, err := DecodeLines(payload)
	if err != nil {
		e.logger.Printf("⚠️ cart: slot %s is malformed, starting empty: %v", key, err)
		return nil
	}
	return lines
}

func (e *Engine) persistLocked() {
	e.writeSlot(slotKey(e.identity), e.lines)
}

func (e *Engine) writeSlot(key string, lines []Line) {
	payload, err := EncodeLines(lines)
	if err != nil {
		e.logger.Printf("⚠️ cart: encoding slot %s: %v", key, err)
		return
	}
	if err := e.local.Save(key, payload); err != nil {
		e.logger.Printf("⚠️ cart: saving slot %s: %v", key, err)
	}
}

func (e *Engine) deleteSlot(key string) {
	if err := e.local.Delete(key); err != nil {
		e.logger.Printf("⚠️ cart: deleting slot %s: %v", key, err)
	}
}

// MemoryStore is a LocalStore that lives for the process.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (m *MemoryStore) Load(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.slots[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), p...), nil
}

func (m *MemoryStore) Save(key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = append([]byte(nil), payload...)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}
