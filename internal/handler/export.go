package handler

import "net/http"

func (s *Server) exportTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	ical, err := s.export.Export(r.Context(), user.ID, tripID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trip.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ical))
}
