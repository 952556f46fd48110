package api

import "net/http"

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.deps.Library.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := statusResponse{
		Status:  "ok",
		Version: s.deps.Version,
		Movies:  count,
		Roots:   s.deps.Roots,
	}
	if s.deps.Status != nil {
		resp.Scanning = s.deps.Status.Running()
		resp.LastScan = s.deps.Status.LastResult()
	}
	if s.deps.Scanner != nil {
		resp.ScanPending = s.deps.Scanner.Pending()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) triggerScan(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scanner == nil {
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Scanner not configured")
		return
	}
	if !s.deps.Scanner.Trigger() {
		writeError(w, http.StatusConflict, "SCAN_PENDING", "A scan is already queued")
		return
	}
	writeJSON(w, http.StatusAccepted, scanResponse{Status: "queued"})
}
