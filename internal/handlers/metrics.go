package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"
)

// HandleMetrics returns JSON statistics about memory usage. It backs /metrics
// when telemetry is disabled and there is no prometheus registry to expose.
func (h *BlogHandler) HandleMetrics() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		stats := struct {
			Alloc       string    `json:"allocated_heap_mb"`
			TotalAlloc  string    `json:"total_alloc_mb"`
			Sys         string    `json:"system_obtained_mb"`
			NumGC       uint32    `json:"gc_cycles"`
			CurrentTime time.Time `json:"server_time"`
			Goroutines  int       `json:"goroutines"`
			Cores       int       `json:"cpu_cores"`
		}{
			Alloc:       bToMb(m.Alloc),
			TotalAlloc:  bToMb(m.TotalAlloc),
			Sys:         bToMb(m.Sys),
			NumGC:       m.NumGC,
			CurrentTime: time.Now().Local().Truncate(time.Millisecond),
			Goroutines:  runtime.NumGoroutine(),
			Cores:       runtime.NumCPU(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	})
}

// Helper to format bytes to MB string
func bToMb(b uint64) string {
	mb := float64(b) / 1024 / 1024
	return fmt.Sprintf("%.2f MB", mb)
}
