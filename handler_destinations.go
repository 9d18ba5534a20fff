package fieldtrack

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldsuite/fieldtrack/destinations"
)

type destinationListResponse struct {
	ResponseTimestamp string                     `json:"response_timestamp"`
	AgentID           string                     `json:"agent_id"`
	Active            []destinations.Destination `json:"active"`
	Completed         []destinations.Destination `json:"completed"`
}

func handleDestinationsJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	agentID := r.URL.Query().Get("agent")
	if agentID == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(buildErrorPayload("You must provide an agent."))
		return
	}
	mode, dateRange, err := parseFilterParams(
		r.URL.Query().Get("filter"),
		r.URL.Query().Get("from"),
		r.URL.Query().Get("to"),
	)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(buildErrorPayload(err.Error()))
		return
	}

	list := destinations.NewList(destStore)
	if err := list.Select(r.Context(), agentID); err != nil {
		writeDestinationError(w, err)
		return
	}

	now := timeNow()
	resp := destinationListResponse{
		ResponseTimestamp: iso8601Now(),
		AgentID:           agentID,
		Active:            destinations.FilterByDate(list.Active(), mode, dateRange, now),
		Completed:         destinations.FilterByDate(list.Completed(), mode, dateRange, now),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

type saveDestinationsRequest struct {
	AgentID      string                     `json:"agent_id"`
	Destinations []destinations.Destination `json:"destinations"`
}

func handleDestinationsSaveJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req saveDestinationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(buildErrorPayload("Malformed save payload."))
		return
	}

	list := destinations.NewList(destStore)
	if err := list.Replace(req.AgentID, req.Destinations); err != nil {
		writeDestinationError(w, err)
		return
	}
	if err := list.Save(r.Context()); err != nil {
		writeDestinationError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "saved"})
}

func handlePlacesAutocompleteJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if placeLookup == nil {
		w.WriteHeader(http.StatusNotImplemented)
		_, _ = w.Write(buildErrorPayload("Place lookup is not configured."))
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(buildErrorPayload("You must provide a query."))
		return
	}
	suggestions, err := placeLookup.Autocomplete(r.Context(), query)
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write(buildErrorPayload(err.Error()))
		return
	}
	_ = json.NewEncoder(w).Encode(suggestions)
}

func handlePlacesDetailsJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if placeLookup == nil {
		w.WriteHeader(http.StatusNotImplemented)
		_, _ = w.Write(buildErrorPayload("Place lookup is not configured."))
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(buildErrorPayload("You must provide a suggestion id."))
		return
	}
	point, err := placeLookup.Details(r.Context(), id)
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write(buildErrorPayload(err.Error()))
		return
	}
	_ = json.NewEncoder(w).Encode(point)
}

func writeDestinationError(w http.ResponseWriter, err error) {
	var vErr *destinations.ValidationError
	var sErr *destinations.SaveError
	var rErr *destinations.RefreshError
	switch {
	case errors.As(err, &vErr):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, destinations.ErrBusy):
		w.WriteHeader(http.StatusConflict)
	case errors.As(err, &sErr), errors.As(err, &rErr):
		w.WriteHeader(http.StatusBadGateway)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	_, _ = w.Write(buildErrorPayload(err.Error()))
}
