package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cellgen/internal/cli/output"
	"github.com/leapstack-labs/cellgen/internal/store"
	"github.com/leapstack-labs/cellgen/pkg/core"
)

// HistoryEntry is one run in the JSON output of the history command.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Path      string    `json:"path"`
	Hash      string    `json:"hash"`
	Type      string    `json:"type"`
	States    int       `json:"states"`
	Variables int       `json:"variables"`
	Equations int       `json:"equations"`
	Profiles  []string  `json:"profiles"`
	Errors    int       `json:"errors"`
	Warnings  int       `json:"warnings"`
	CreatedAt time.Time `json:"created_at"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent analysis and generation runs",
		Long: `List the runs recorded in the history database (history_path), most recent
first. Use --run to show the issues of one run.`,
		Example: `  cellgen history --limit 5
  cellgen history --run 3f2a...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			id, _ := cmd.Flags().GetString("run")
			return runHistory(cmd, limit, id)
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().String("run", "", "Show the issues of one run")
	return cmd
}

func runHistory(cmd *cobra.Command, limit int, id string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if cmdCtx.Store == nil {
		return errors.New("history is disabled (history_path is empty)")
	}

	var runs []*store.Run
	if id != "" {
		run, err := cmdCtx.Store.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}
		runs = []*store.Run{run}
	} else {
		runs, err = cmdCtx.Store.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if id != "" {
			return r.JSON(struct {
				HistoryEntry
				Issues core.Issues `json:"issues"`
			}{historyEntry(runs[0]), runs[0].Issues})
		}
		entries := make([]HistoryEntry, 0, len(runs))
		for _, run := range runs {
			entries = append(entries, historyEntry(run))
		}
		return r.JSON(entries)
	}

	if len(runs) == 0 {
		r.Println(r.Muted("No runs recorded yet."))
		return nil
	}

	r.Header(1, fmt.Sprintf("Runs (%d)", len(runs)))
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		e := historyEntry(run)
		rows = append(rows, []string{
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			shortID(e.ID), e.Model, e.Type,
			strconv.Itoa(e.States), strconv.Itoa(e.Equations),
			strings.Join(e.Profiles, ", "),
			fmt.Sprintf("%d/%d", e.Errors, e.Warnings),
		})
	}
	r.Table([]string{"When", "Run", "Model", "Type", "States", "Equations", "Profiles", "Errors/Warnings"}, rows)

	if id != "" {
		renderIssues(r, runs[0].Issues)
	}
	return nil
}

func historyEntry(run *store.Run) HistoryEntry {
	profiles := run.Profiles
	if profiles == nil {
		profiles = []string{}
	}
	return HistoryEntry{
		ID:        run.ID,
		Model:     run.Model,
		Path:      run.Path,
		Hash:      run.Hash,
		Type:      run.Type,
		States:    run.States,
		Variables: run.Variables,
		Equations: run.Equations,
		Profiles:  profiles,
		Errors:    run.Errors,
		Warnings:  run.Warnings,
		CreatedAt: run.CreatedAt,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
