package alignedalloc

// Scope classifies an allocation request by the lifetime the host expects.
// It is diagnostic only and never changes allocation behavior.
type Scope int

const (
	// ScopeCommand: valid for the duration of a single host command.
	ScopeCommand Scope = iota
	// ScopeObject: lives as long as the host object it was created for.
	ScopeObject
	// ScopeCache: backs a host-side cache.
	ScopeCache
	// ScopeDevice: lives as long as the device.
	ScopeDevice
	// ScopeInstance: lives as long as the host instance.
	ScopeInstance

	// ScopeUnspecified is used when a caller does not supply a scope.
	ScopeUnspecified Scope = -1
)

func (s Scope) String() string {
	switch s {
	case ScopeCommand:
		return "command"
	case ScopeObject:
		return "object"
	case ScopeCache:
		return "cache"
	case ScopeDevice:
		return "device"
	case ScopeInstance:
		return "instance"
	default:
		return "???"
	}
}

// InternalAllocationType classifies memory the host allocated on its own and
// merely reports to the hooks.
type InternalAllocationType int

const (
	// InternalAllocationExecutable is host memory that holds executable code.
	InternalAllocationExecutable InternalAllocationType = iota
)

func (t InternalAllocationType) String() string {
	switch t {
	case InternalAllocationExecutable:
		return "executable"
	default:
		return "???"
	}
}
