package health

import (
	"context"
	"runtime"
)

// SimpleCheck always reports healthy
func SimpleCheck(name string) CheckFunc {
	return func(context.Context) Check {
		return Check{Name: name, Status: StatusHealthy}
	}
}

// GraphStoreCheck reports the graph store reachable when ping succeeds. A
// nil ping means no store has been opened yet, which is degraded rather
// than unhealthy.
func GraphStoreCheck(backend string, ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "graph_store",
			Details: map[string]any{"backend": backend},
		}

		switch {
		case ping == nil:
			check.Status = StatusDegraded
			check.Message = "Not connected"
		default:
			if err := ping(ctx); err != nil {
				check.Status = StatusUnhealthy
				check.Message = err.Error()
			} else {
				check.Status = StatusHealthy
				check.Message = "Connected"
			}
		}
		return check
	}
}

// MemoryCheck reports degraded when the heap takes most of the memory
// obtained from the OS
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	if getUsage == nil {
		getUsage = runtimeMemory
	}
	return func(context.Context) Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()
		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		usagePercent := 0.0
		if sys > 0 {
			usagePercent = float64(alloc) / float64(sys) * 100
		}
		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}
		return check
	}
}

func runtimeMemory() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc, m.Sys
}
