// Command tracker is a small manual surface over the sync layer: it wires
// config, local storage, the remote client, and the orchestrator, runs a
// startup sync pass, and then reads commands from stdin.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/client"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/config"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/logging"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/models"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/repositories/kv"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/repositories/queue"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/services/sync"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/session"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/storage"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := storage.Open(ctx, cfg.StorageDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	rest := client.NewRESTClient(cfg.APIBaseURL, cfg.APIKey,
		cfg.FallbackThreshold, cfg.CallTimeout, cfg.ListLimit, logger)
	resolver := session.NewResolver(nil, rest, kv.NewSQLiteRepository(db),
		cfg.SessionBound, logger)
	orch := sync.NewOrchestrator(resolver, rest, queue.NewSQLiteQueue(db),
		cfg.SaveTimeout,
		sync.RetryPolicy{MaxRetries: cfg.SyncMaxRetries, BaseDelay: cfg.SyncBaseDelay},
		logger)

	if err := orch.Sync(ctx); err != nil {
		logger.Warn(ctx, "startup sync failed", "error", err)
	}

	run(ctx, orch)
}

func run(ctx context.Context, orch *sync.Orchestrator) {
	fmt.Println("tracker (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("tracker > ")
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Available commands: list, save <date> <weight>, delete <id>, sync, pending, exit")

		case "save":
			if len(args) != 2 {
				fmt.Println("Usage: save <YYYY-MM-DD> <weight>")
				continue
			}
			weight, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				fmt.Println("weight must be a number")
				continue
			}
			rec := models.NewRecord(args[0])
			rec.Measurements.Weight = weight
			res := orch.SaveRecord(ctx, rec)
			printResult(res)

		case "delete":
			if len(args) != 1 {
				fmt.Println("Usage: delete <id>")
				continue
			}
			printResult(orch.DeleteRecord(ctx, args[0]))

		case "list":
			list, err := orch.Fetch(ctx)
			if err != nil {
				fmt.Printf("fetch failed: %v\n", err)
				continue
			}
			for _, r := range list {
				fmt.Printf("%s  %s  weight=%.1f  [%s]\n", r.ID, r.Date, r.Measurements.Weight, r.State)
			}

		case "sync":
			if err := orch.Sync(ctx); err != nil {
				fmt.Printf("sync failed: %v\n", err)
				continue
			}
			fmt.Println("sync done")

		case "pending":
			n, err := orch.Pending(ctx)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("%d record(s) waiting for sync\n", n)

		case "exit", "quit":
			fmt.Println("Bye!")
			return

		default:
			fmt.Printf("unknown command: %s\n", cmd)
		}
	}
}

func printResult(res models.SaveResult) {
	if res.Success {
		fmt.Printf("saved (%s)\n", res.Target)
		return
	}
	fmt.Println(res.Message)
}
