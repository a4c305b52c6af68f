package handler

import "net/http"

// Health answers liveness probes. Mounted outside the authenticated router.
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
