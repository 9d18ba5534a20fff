package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	fieldtrack "github.com/fieldsuite/fieldtrack"
	"github.com/fieldsuite/fieldtrack/agents"
	"github.com/fieldsuite/fieldtrack/config"
	"github.com/fieldsuite/fieldtrack/destinations"
	"github.com/fieldsuite/fieldtrack/pings"
	"github.com/fieldsuite/fieldtrack/places"
)

func main() {
	mode := flag.String("mode", "serve", "serve|oneshot")
	configPath := flag.String("config", "", "path to config.yml (defaults to ./config.yml)")
	view := flag.String("view", "live", "oneshot view: live|history|destinations")
	agentsArg := flag.String("agents", "all", "comma-separated agent ids, or all")
	dayArg := flag.String("day", "", "history day (YYYY-MM-DD)")
	agentArg := flag.String("agent", "", "agent id for the destinations view")
	filterArg := flag.String("filter", "all", "destinations filter: all|today|thisWeek|thisMonth|custom")
	fromArg := flag.String("from", "", "custom filter lower bound (YYYY-MM-DD)")
	toArg := flag.String("to", "", "custom filter upper bound (YYYY-MM-DD)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	fieldtrack.InitLogging()
	var paths []string
	if *configPath != "" {
		paths = append(paths, *configPath)
	}
	if err := config.LoadAppConfig(paths...); err != nil {
		log.Fatalf("config error: %v", err)
	}
	cfg := config.Config

	timeout := time.Duration(cfg.Backend.TimeoutMS) * time.Millisecond
	directory := agents.NewClient(cfg.Backend.BaseURL, timeout, cfg.Backend.RetryCount)
	pingStore := pings.NewClient(cfg.Backend.BaseURL, timeout, cfg.Backend.RetryCount)
	destStore := destinations.NewClient(cfg.Backend.BaseURL, timeout, cfg.Backend.RetryCount)

	var liveCache *pings.LiveCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis unavailable, live cache disabled: %v", err)
		} else {
			liveCache = pings.NewLiveCache(rdb, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
		}
	}

	var lookup places.Lookup
	if cfg.Places.BaseURL != "" {
		lookup = places.NewClient(cfg.Places.BaseURL, cfg.Places.APIKey, time.Duration(cfg.Places.TimeoutMS)*time.Millisecond)
	}

	aggregator := fieldtrack.NewAggregator(directory, pingStore, liveCache)
	viewCache := fieldtrack.NewViewCache(aggregator)

	switch *mode {
	case "serve":
		fieldtrack.StartServer(viewCache, destStore, lookup)
		fieldtrack.HandleGracefulShutdown()
	case "oneshot":
		buf, err := runOneshot(viewCache, destStore, oneshotArgs{
			view:   *view,
			agents: *agentsArg,
			day:    *dayArg,
			agent:  *agentArg,
			filter: *filterArg,
			from:   *fromArg,
			to:     *toArg,
		})
		if err != nil {
			log.Fatalf("oneshot error: %v", err)
		}
		fmt.Println(string(buf))
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}
