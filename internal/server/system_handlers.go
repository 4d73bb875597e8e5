package server

import (
	"net/http"
	"runtime"
)

// handleSystemStatus handles system status requests
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	caches := make(map[string]int, len(s.caches))
	for _, c := range s.caches {
		caches[c.Name()] = c.Len()
	}

	response := map[string]interface{}{
		"status": "running",
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
		"caches":     caches,
	}

	s.writeJSON(w, http.StatusOK, response)
}
