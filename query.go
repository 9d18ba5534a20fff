package fieldtrack

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/fieldsuite/fieldtrack/destinations"
)

type QueryError struct{ Msg string }

func (e *QueryError) Error() string { return e.Msg }

// parseAgentsParam splits a comma-separated agent selection. Empty means
// "all"; "all" must stand alone.
func parseAgentsParam(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{AllAgents}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return []string{AllAgents}, nil
	}
	for _, id := range out {
		if id == AllAgents && len(out) > 1 {
			return nil, &QueryError{Msg: "agents=all can not be combined with explicit ids"}
		}
	}
	return out, nil
}

// parseDayParam parses the required day parameter for history views.
func parseDayParam(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, &QueryError{Msg: "You must provide a day (YYYY-MM-DD)."}
	}
	day, err := parseDay(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &QueryError{Msg: "Malformed day; expected YYYY-MM-DD."}
	}
	return day, nil
}

// parseFilterParams normalizes the destination date-filter selection.
// Missing custom bounds are not an error: the filter itself degrades to
// "all" in that case.
func parseFilterParams(mode, from, to string) (destinations.FilterMode, destinations.DateRange, error) {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		mode = string(destinations.FilterAll)
	}
	switch destinations.FilterMode(mode) {
	case destinations.FilterAll, destinations.FilterToday, destinations.FilterThisWeek, destinations.FilterThisMonth, destinations.FilterCustom:
	default:
		return "", destinations.DateRange{}, &QueryError{Msg: "Unsupported filter: " + mode}
	}

	var r destinations.DateRange
	if strings.TrimSpace(from) != "" {
		t, err := parseDay(strings.TrimSpace(from))
		if err != nil {
			return "", destinations.DateRange{}, &QueryError{Msg: "Malformed from; expected YYYY-MM-DD."}
		}
		r.From = &t
	}
	if strings.TrimSpace(to) != "" {
		t, err := parseDay(strings.TrimSpace(to))
		if err != nil {
			return "", destinations.DateRange{}, &QueryError{Msg: "Malformed to; expected YYYY-MM-DD."}
		}
		r.To = &t
	}
	return destinations.FilterMode(mode), r, nil
}

func buildErrorPayload(msg string) []byte {
	payload := struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
	}{}
	payload.Error.Description = msg
	b, _ := json.Marshal(payload)
	return b
}
