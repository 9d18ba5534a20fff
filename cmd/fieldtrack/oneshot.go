package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	fieldtrack "github.com/fieldsuite/fieldtrack"
	"github.com/fieldsuite/fieldtrack/destinations"
)

// oneshot renders a single view to stdout and exits. This is CLI-specific
// glue and is not part of the core library.
type oneshotArgs struct {
	view   string
	agents string
	day    string
	agent  string
	filter string
	from   string
	to     string
}

func splitAgents(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{fieldtrack.AllAgents}
	}
	return out
}

func parseDayFlag(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

func runOneshot(vc *fieldtrack.ViewCache, store destinations.Store, args oneshotArgs) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args.view {
	case "live":
		return vc.GetLiveResponse(ctx, splitAgents(args.agents))
	case "history":
		if args.day == "" {
			return nil, fmt.Errorf("history view requires -day")
		}
		day, err := parseDayFlag(args.day)
		if err != nil {
			return nil, fmt.Errorf("malformed -day: %w", err)
		}
		return vc.GetHistoryResponse(ctx, splitAgents(args.agents), day)
	case "destinations":
		if args.agent == "" {
			return nil, fmt.Errorf("destinations view requires -agent")
		}
		list := destinations.NewList(store)
		if err := list.Select(ctx, args.agent); err != nil {
			return nil, err
		}
		mode := destinations.FilterMode(args.filter)
		var r destinations.DateRange
		if args.from != "" {
			t, err := parseDayFlag(args.from)
			if err != nil {
				return nil, fmt.Errorf("malformed -from: %w", err)
			}
			r.From = &t
		}
		if args.to != "" {
			t, err := parseDayFlag(args.to)
			if err != nil {
				return nil, fmt.Errorf("malformed -to: %w", err)
			}
			r.To = &t
		}
		now := time.Now()
		out := struct {
			AgentID   string                     `json:"agent_id"`
			Active    []destinations.Destination `json:"active"`
			Completed []destinations.Destination `json:"completed"`
		}{
			AgentID:   args.agent,
			Active:    destinations.FilterByDate(list.Active(), mode, r, now),
			Completed: destinations.FilterByDate(list.Completed(), mode, r, now),
		}
		return json.MarshalIndent(out, "", "  ")
	default:
		return nil, fmt.Errorf("unknown view %q", args.view)
	}
}
