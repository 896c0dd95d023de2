package mediauri

import "sync"

// Translator maps uuid authorities to the ref address of the same asset so
// both spellings of an address land on one cache entry.
type Translator struct {
	mu    sync.RWMutex
	byUID map[string]string
}

// NewTranslator returns an empty translator.
func NewTranslator() *Translator {
	return &Translator{byUID: make(map[string]string)}
}

// AddPair records that uuid and ref name the same asset. Empty values are
// ignored.
func (t *Translator) AddPair(uuid, ref string) {
	if uuid == "" || ref == "" {
		return
	}
	t.mu.Lock()
	t.byUID[uuid] = ref
	t.mu.Unlock()
}

// Ref returns u rewritten to the ref scheme when u is a known uuid address.
// The fragment is kept. ok is false when u is a uuid address with no known
// ref; ref addresses are returned unchanged with ok true.
func (t *Translator) Ref(u URI) (URI, bool) {
	if u.Scheme == SchemeRef {
		return u, true
	}
	t.mu.RLock()
	ref, ok := t.byUID[u.Authority]
	t.mu.RUnlock()
	if !ok {
		return u, false
	}
	return URI{Scheme: SchemeRef, Authority: ref, Fragment: u.Fragment}, true
}

// Len returns the number of recorded pairs.
func (t *Translator) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byUID)
}

// Reset forgets all pairs.
func (t *Translator) Reset() {
	t.mu.Lock()
	t.byUID = make(map[string]string)
	t.mu.Unlock()
}
