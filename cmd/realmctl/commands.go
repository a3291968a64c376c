package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"github.com/thebtf/realmstats/internal/config"
	gormstore "github.com/thebtf/realmstats/internal/db/gorm"
	"github.com/thebtf/realmstats/internal/masterstats"
	"github.com/thebtf/realmstats/internal/sessions"
	"github.com/thebtf/realmstats/internal/stats"
	"github.com/thebtf/realmstats/internal/titles"
)

type (
	configFunc func() *config.Config
	emitFunc   func(cmd *cobra.Command, v interface{}) error
)

func summaryCmd(conf configFunc, emit emitFunc) *cobra.Command {
	var order string

	cmd := &cobra.Command{
		Use:   "summary [session-id]",
		Short: "Summarize all sessions, or one session by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := conf()
			overrides, err := titles.Load(cfg.TitlesPath)
			if err != nil {
				return fmt.Errorf("load titles: %w", err)
			}
			store := sessions.NewStore(cfg.SessionsDir)

			if len(args) == 1 {
				sum, err := stats.NewAggregator(store, overrides.Lookup).Summarize(args[0])
				if err != nil {
					return fmt.Errorf("session %q: %w", args[0], err)
				}
				return emit(cmd, sum)
			}

			lookup := overrides.LookupPrefix
			if cfg.TitleMatch == config.TitleMatchExact {
				lookup = overrides.Lookup
			}
			list, err := stats.NewAggregator(store, lookup).SummarizeAll(order)
			if err != nil {
				return err
			}
			return emit(cmd, list)
		},
	}
	cmd.Flags().StringVar(&order, "sort", stats.SortNewest, "Order: newest, oldest or name")
	return cmd
}

func playersCmd(conf configFunc, emit emitFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "Per-player totals across all sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			players, err := stats.RollupPlayers(sessions.NewStore(conf().SessionsDir))
			if err != nil {
				return err
			}
			return emit(cmd, players)
		},
	}
}

func hallOfFameCmd(conf configFunc, emit emitFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "hall-of-fame",
		Aliases: []string{"hof"},
		Short:   "Top character and player records",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := masterstats.NewLoader(conf().MasterStatsPath).Load()
			if err != nil {
				return err
			}
			return emit(cmd, stats.BuildHallOfFame(ms))
		},
	}
}

func characterCmd(conf configFunc, emit emitFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "character <name>",
		Short: "Statistics for one character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := masterstats.NewLoader(conf().MasterStatsPath).Load()
			if err != nil {
				return err
			}
			view, err := stats.CharacterStats(ms, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return emit(cmd, view)
		},
	}
}

func reassignCmd(conf configFunc, emit emitFunc) *cobra.Command {
	var noAudit bool

	cmd := &cobra.Command{
		Use:   "reassign <session-id> <character> <player>",
		Short: "Assign a character in a session to another player",
		Long: `Rewrites the session's character-to-player mapping. The original file is kept
as a timestamped backup next to it, and the change is recorded in the audit log
unless --no-audit is given.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := conf()
			res, err := sessions.NewStore(cfg.SessionsDir).Reassign(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			if !noAudit {
				db, err := gormstore.NewStore(gormstore.Config{DSN: cfg.DBPath, LogLevel: logger.Silent})
				if err != nil {
					return fmt.Errorf("reassignment applied but audit log unavailable: %w", err)
				}
				defer db.Close()
				_, err = gormstore.NewReassignmentStore(db).Record(cmd.Context(), &gormstore.Reassignment{
					SessionID:      res.SessionID,
					Character:      res.Character,
					PreviousPlayer: res.PreviousPlayer,
					NewPlayer:      res.NewPlayer,
					BackupPath:     res.BackupPath,
					CreatedAt:      res.At,
				})
				if err != nil {
					return fmt.Errorf("reassignment applied but not recorded: %w", err)
				}
			}
			return emit(cmd, res)
		},
	}
	cmd.Flags().BoolVar(&noAudit, "no-audit", false, "Skip recording the change in the audit log")
	return cmd
}
