package fieldtrack

import (
	"errors"
	"net/http"
)

func handleTrackingLiveJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ids, err := parseAgentsParam(r.URL.Query().Get("agents"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(buildErrorPayload(err.Error()))
		return
	}
	buf, err := viewCache.GetLiveResponse(r.Context(), ids)
	if err != nil {
		writeViewError(w, err)
		return
	}
	_, _ = w.Write(buf)
}

func handleTrackingHistoryJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ids, err := parseAgentsParam(r.URL.Query().Get("agents"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(buildErrorPayload(err.Error()))
		return
	}
	day, err := parseDayParam(r.URL.Query().Get("day"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(buildErrorPayload(err.Error()))
		return
	}
	buf, err := viewCache.GetHistoryResponse(r.Context(), ids, day)
	if err != nil {
		writeViewError(w, err)
		return
	}
	_, _ = w.Write(buf)
}

// handleTrackingRefresh is the explicit refetch entry point: the source
// screens poll rather than receive pushes, so a reload drops the cached
// payloads and the next view request rebuilds from the backend.
func handleTrackingRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	viewCache.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func writeViewError(w http.ResponseWriter, err error) {
	var unknown *UnknownAgentError
	var upstream *UpstreamError
	switch {
	case errors.As(err, &unknown):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, ErrViewBusy):
		w.WriteHeader(http.StatusConflict)
	case errors.As(err, &upstream):
		w.WriteHeader(http.StatusBadGateway)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	_, _ = w.Write(buildErrorPayload(err.Error()))
}
