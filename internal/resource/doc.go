// Package resource implements the Controller for allocator limits and governance.
//
// The Controller provides centralized management of three resource types:
//
//   - Memory: Track and limit bytes handed out by a backend (fail-fast)
//   - Workers: Limit concurrent workload goroutines (stress runs)
//   - Events: Rate-limit diagnostic log records so tracing cannot flood the sink
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                        Controller                           │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Memory Limit   │  Worker Slots   │  Event Rate Limiter     │
//	│  (semaphore)    │  (semaphore)    │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  TryAcquire...  │  AcquireWorker  │  AllowEvent             │
//	│  ReleaseMemory  │  ReleaseWorker  │  DroppedEvents          │
//	│  MemoryUsage    │                 │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and an atomic
// counter for usage. Allocation paths never block on exhaustion:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if !rc.TryAcquireMemory(n) {
//	    // ErrMemoryLimitExceeded - report exhaustion to the caller
//	}
//	defer rc.ReleaseMemory(n)
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use.
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional limiting without nil checks everywhere.
package resource
