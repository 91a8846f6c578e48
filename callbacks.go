package alignedalloc

// Callbacks is a host hook table: the set of functions a host API calls to
// obtain, resize and release memory, plus notifications about memory the host
// allocated itself. Every hook reports exhaustion by returning nil.
type Callbacks struct {
	Allocation         func(size, alignment int, scope Scope) []byte
	Reallocation       func(original []byte, size, alignment int, scope Scope) []byte
	Free               func(memory []byte)
	InternalAllocation func(size int, typ InternalAllocationType, scope Scope)
	InternalFree       func(size int, typ InternalAllocationType, scope Scope)
}

// NewCallbacks adapts a to a hook table. Scopes are forwarded if a implements
// ScopedAllocator; internal notifications are forwarded if a implements
// InternalObserver and ignored otherwise.
func NewCallbacks(a Allocator) Callbacks {
	cb := Callbacks{
		Allocation: func(size, alignment int, _ Scope) []byte {
			buf, _ := a.Allocate(size, alignment)
			return buf
		},
		Reallocation: func(original []byte, size, alignment int, _ Scope) []byte {
			buf, _, _ := a.Reallocate(original, size, alignment)
			return buf
		},
		Free: func(memory []byte) {
			a.Free(memory)
		},
		InternalAllocation: func(int, InternalAllocationType, Scope) {},
		InternalFree:       func(int, InternalAllocationType, Scope) {},
	}

	if s, ok := a.(ScopedAllocator); ok {
		cb.Allocation = func(size, alignment int, scope Scope) []byte {
			buf, _ := s.AllocateScope(size, alignment, scope)
			return buf
		}
		cb.Reallocation = func(original []byte, size, alignment int, scope Scope) []byte {
			buf, _, _ := s.ReallocateScope(original, size, alignment, scope)
			return buf
		}
	}

	if o, ok := a.(InternalObserver); ok {
		cb.InternalAllocation = o.InternalAllocation
		cb.InternalFree = o.InternalFree
	}

	return cb
}

// NewDebugCallbacks returns the hook table of a Debug decorator around a,
// tagged with src.
func NewDebugCallbacks(a Allocator, src string, optFns ...DebugOption) Callbacks {
	return NewCallbacks(NewDebug(a, src, optFns...))
}
