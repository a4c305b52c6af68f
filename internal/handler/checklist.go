package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/acady/wayfarer/backend/internal/domain"
)

type checklistResponse struct {
	ID     uuid.UUID               `json:"id"`
	TripID uuid.UUID               `json:"trip_id"`
	Title  string                  `json:"title"`
	Items  []checklistItemResponse `json:"items"`
}

type checklistItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ChecklistID uuid.UUID `json:"checklist_id"`
	Text        string    `json:"text"`
	SortOrder   int       `json:"sort_order"`
	Checked     bool      `json:"checked"`
}

func toChecklistResponse(cl domain.Checklist) checklistResponse {
	items := make([]checklistItemResponse, len(cl.Items))
	for i, it := range cl.Items {
		items[i] = toChecklistItemResponse(it)
	}
	return checklistResponse{ID: cl.ID, TripID: cl.TripID, Title: cl.Title, Items: items}
}

func toChecklistItemResponse(it domain.ChecklistItem) checklistItemResponse {
	return checklistItemResponse{
		ID:          it.ID,
		ChecklistID: it.ChecklistID,
		Text:        it.Text,
		SortOrder:   it.SortOrder,
		Checked:     it.Checked,
	}
}

func (s *Server) listChecklists(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	lists, err := s.checks.List(r.Context(), user.ID, tripID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]checklistResponse, len(lists))
	for i, cl := range lists {
		out[i] = toChecklistResponse(cl)
	}
	respondJSON(w, http.StatusOK, out)
}

type createChecklistRequest struct {
	Title string `json:"title" validate:"required"`
}

func (s *Server) createChecklist(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	var req createChecklistRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cl, err := s.checks.Create(r.Context(), user.ID, tripID, req.Title)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toChecklistResponse(cl))
}

type addItemRequest struct {
	Text string `json:"text" validate:"required"`
}

func (s *Server) addChecklistItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	checklistID, ok := pathID(w, r, "checklistID")
	if !ok {
		return
	}
	var req addItemRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	item, err := s.checks.AddItem(r.Context(), user.ID, checklistID, req.Text)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toChecklistItemResponse(item))
}

func (s *Server) toggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	item, err := s.checks.ToggleItem(r.Context(), user.ID, itemID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toChecklistItemResponse(item))
}

type reorderItemsRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" validate:"required"`
}

func (s *Server) reorderChecklist(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	checklistID, ok := pathID(w, r, "checklistID")
	if !ok {
		return
	}
	var req reorderItemsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	items, err := s.checks.Reorder(r.Context(), user.ID, checklistID, req.ItemIDs)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]checklistItemResponse, len(items))
	for i, it := range items {
		out[i] = toChecklistItemResponse(it)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) deleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	if err := s.checks.DeleteItem(r.Context(), user.ID, itemID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
