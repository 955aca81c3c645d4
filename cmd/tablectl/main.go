/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

// tablectl is a small operator tool over a configured table provider: seed
// demo rows, run filtered queries, count, and purge.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-openapi/strfmt"
	"github.com/urfave/cli/v3"

	"github.com/tidemark/tablestore"
	"github.com/tidemark/tablestore/config"
	"github.com/tidemark/tablestore/filter"
	"github.com/tidemark/tablestore/registry"
	"github.com/tidemark/tablestore/store"
	"github.com/tidemark/tablestore/store/dynamo"
	"github.com/tidemark/tablestore/store/memtable"
)

// Player is the demo entity tablectl operates on.
type Player struct {
	ID        string          `table:"ID"`
	Name      string          `table:"Name"`
	Club      string          `table:"Club"`
	Rating    int             `table:"Rating"`
	UpdatedAt strfmt.DateTime `table:"UpdatedAt"`
	ETag      string          `table:"ETag"`
}

func init() {
	registry.RegisterKeyMap[Player](registry.KeyMap{
		PartitionKey: "PLAYER#{ID}",
		RowKey:       "PLAYER#{ID}",
		ETagField:    "ETag",
	})
}

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	app := &cli.Command{
		Name:    "tablectl",
		Usage:   "Operate on a configured table provider",
		Version: tablestore.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
		},
		Commands: []*cli.Command{
			seedCommand(logger),
			queryCommand(logger),
			countCommand(logger),
			purgeCommand(logger),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("tablectl: %v", err)
	}
}

func openRepository(cmd *cli.Command, logger *log.Logger) (*tablestore.Repository[Player], error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	var client store.TableClient
	switch cfg.Provider {
	case config.ProviderDynamo:
		client, err = dynamo.New(cfg.Dynamo.AccessKey, cfg.Dynamo.SecretKey, cfg.Dynamo.Region, cfg.Table)
		if err != nil {
			return nil, err
		}
	default:
		client = memtable.New(cfg.Table)
	}

	logger.Debug("provider selected", "provider", cfg.Provider, "table", cfg.Table)
	return tablestore.New[Player](client, tablestore.WithLogger(logger))
}

func seedCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert n demo players",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "n", Usage: "Number of players to insert", Value: 100},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo, err := openRepository(cmd, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			n := cmd.Int("n")
			players := make([]Player, 0, n)
			clubs := []string{"Rapid", "Aurora", "Meridian", "Harbor"}
			for i := 0; i < n; i++ {
				players = append(players, Player{
					ID:        fmt.Sprintf("p%04d", i),
					Name:      fmt.Sprintf("Player %d", i),
					Club:      clubs[i%len(clubs)],
					Rating:    1200 + (i*37)%1400,
					UpdatedAt: strfmt.DateTime(time.Now().UTC()),
				})
			}

			inserted, err := repo.UpsertAll(ctx, players)
			logger.Info("seed complete", "inserted", inserted)
			return err
		},
	}
}

func queryCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "List players matching the given criteria",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "club", Usage: "Filter by club"},
			&cli.IntFlag{Name: "min-rating", Usage: "Minimum rating"},
			&cli.IntFlag{Name: "take", Usage: "Maximum results", Value: 20},
			&cli.IntFlag{Name: "skip", Usage: "Results to skip"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo, err := openRepository(cmd, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			q := repo.Query()
			if club := cmd.String("club"); club != "" {
				q = q.Where(filter.Eq("Club", club))
			}
			if min := cmd.Int("min-rating"); min > 0 {
				q = q.Where(filter.Ge("Rating", min))
			}
			q = q.Skip(cmd.Int("skip")).Take(cmd.Int("take"))

			for res := range q.Stream(ctx) {
				if res.Err != nil {
					return res.Err
				}
				p := res.Item
				fmt.Printf("%-8s %-20s %-10s %4d\n", p.ID, p.Name, p.Club, p.Rating)
			}
			return nil
		},
	}
}

func countCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "count",
		Usage: "Count players matching the given criteria",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "club", Usage: "Filter by club"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo, err := openRepository(cmd, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			q := repo.Query()
			if club := cmd.String("club"); club != "" {
				q = q.Where(filter.Eq("Club", club))
			}
			total, err := q.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Println(total)
			return nil
		},
	}
}

func purgeCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Delete players matching the given criteria",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "club", Usage: "Restrict the purge to one club"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo, err := openRepository(cmd, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			var pred filter.Expr
			if club := cmd.String("club"); club != "" {
				pred = filter.Eq("Club", club)
			}
			deleted, err := repo.DeleteMatching(ctx, pred)
			logger.Info("purge complete", "deleted", deleted)
			return err
		},
	}
}
