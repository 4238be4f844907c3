package keyloop

import (
	"fmt"
	"maps"
	"slices"
)

// Handler responds to a dispatched key.
type Handler interface {
	Handle()
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func()

// Handle calls f().
func (f HandlerFunc) Handle() { f() }

// Binding describes a named binding with its current and default keys.
type Binding struct {
	Name       string // action name, e.g. "quit"
	Key        Key    // key currently bound
	DefaultKey Key    // key given to BindNamed

	// Active is false when a later binding took Key over, so dispatching
	// Key no longer reaches this action.
	Active bool
}

type namedBinding struct {
	defaultKey Key
	currentKey Key
	handler    Handler
}

// Registry maps keys to handlers. A key has at most one handler; binding a
// key again replaces the previous handler.
//
// A Registry is not safe for concurrent use. It is meant to be populated
// before the Loop starts and read only from the loop goroutine.
type Registry struct {
	handlers map[Key]Handler
	owners   map[Key]string // key → named action currently bound to it
	named    map[string]*namedBinding
	order    []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[Key]Handler),
		owners:   make(map[Key]string),
		named:    make(map[string]*namedBinding),
	}
}

// Bind binds h to key, replacing any existing binding.
func (r *Registry) Bind(key Key, h Handler) {
	r.handlers[key] = h
	delete(r.owners, key)
}

// BindFunc binds a plain function to key.
func (r *Registry) BindFunc(key Key, fn func()) {
	r.Bind(key, HandlerFunc(fn))
}

// Unbind removes the binding for key, if any.
func (r *Registry) Unbind(key Key) {
	delete(r.handlers, key)
	delete(r.owners, key)
}

// Lookup returns the handler bound to key.
func (r *Registry) Lookup(key Key) (Handler, bool) {
	h, ok := r.handlers[key]
	return h, ok
}

// Len returns the number of bound keys.
func (r *Registry) Len() int { return len(r.handlers) }

// Dispatch invokes the handler bound to key and reports whether there was
// one. Unbound keys are ignored.
func (r *Registry) Dispatch(key Key) bool {
	h, ok := r.handlers[key]
	if !ok || h == nil {
		return false
	}
	h.Handle()
	return true
}

// BindNamed binds h to key under an action name, so the action can later be
// moved to a different key with Rebind or ApplyConfig.
func (r *Registry) BindNamed(name string, key Key, h Handler) {
	if old, ok := r.named[name]; ok {
		r.release(name, old.currentKey)
	} else {
		r.order = append(r.order, name)
	}
	r.named[name] = &namedBinding{
		defaultKey: key,
		currentKey: key,
		handler:    h,
	}
	r.claim(name, key, h)
}

// Rebind moves a named action to key, taking the key back if another
// binding has shadowed it. It returns false if no action with that name
// exists.
func (r *Registry) Rebind(name string, key Key) bool {
	b, ok := r.named[name]
	if !ok {
		return false
	}
	if b.currentKey == key && r.owners[key] == name {
		return true
	}
	r.release(name, b.currentKey)
	b.currentKey = key
	r.claim(name, key, b.handler)
	return true
}

// Reset moves a named action back to its default key.
func (r *Registry) Reset(name string) bool {
	b, ok := r.named[name]
	if !ok {
		return false
	}
	return r.Rebind(name, b.defaultKey)
}

// Bindings returns the named bindings in registration order, shadowed
// ones included with Active unset.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, 0, len(r.order))
	for _, name := range r.order {
		b := r.named[name]
		out = append(out, Binding{
			Name:       name,
			Key:        b.currentKey,
			DefaultKey: b.defaultKey,
			Active:     r.owners[b.currentKey] == name,
		})
	}
	return out
}

// ApplyConfig rebinds named actions from a name → key-notation map, as read
// from the [bindings] table of a config file. Unknown action names are
// ignored. The first unparsable key aborts with an error; actions are
// applied in name order so the outcome does not depend on map iteration.
func (r *Registry) ApplyConfig(bindings map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(bindings)) {
		if _, ok := r.named[name]; !ok {
			logger().Debug("ignoring binding for unknown action", "action", name)
			continue
		}
		key, err := ParseKey(bindings[name])
		if err != nil {
			return fmt.Errorf("binding %q: %w", name, err)
		}
		r.Rebind(name, key)
		logger().Debug("rebound action", "action", name, "key", key.String())
	}
	return nil
}

func (r *Registry) claim(name string, key Key, h Handler) {
	r.handlers[key] = h
	r.owners[key] = name
}

// release drops key only while the named action still owns it, so a later
// plain Bind on the same key survives a rebind.
func (r *Registry) release(name string, key Key) {
	if r.owners[key] != name {
		return
	}
	delete(r.handlers, key)
	delete(r.owners, key)
}
