package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"interview_backend/internal/database"
	"interview_backend/internal/export"
	"interview_backend/internal/services/dto"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errAborted = errors.New("aborted")

var jobCmd = &cobra.Command{
	Use:   "job <jobId>",
	Short: "Score every candidate against one job and store the matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		start := time.Now()
		results, err := e.matching.MatchAllCandidatesForJob(cmd.Context(), e.db, id)
		if err != nil {
			e.log.Error("job fan-out failed", zap.Uint("job_id", id), zap.Error(err))
			return err
		}
		e.log.Info("job fan-out done",
			zap.Uint("job_id", id), zap.Int("scored", len(results)), zap.Duration("took", time.Since(start)))
		return printResults(cmd.OutOrStdout(), results)
	},
}

var candidateCmd = &cobra.Command{
	Use:   "candidate <candidateId>",
	Short: "Score one candidate against every job and store the matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		start := time.Now()
		results, err := e.matching.MatchAllJobsForCandidate(cmd.Context(), e.db, id)
		if err != nil {
			e.log.Error("candidate fan-out failed", zap.Uint("candidate_id", id), zap.Error(err))
			return err
		}
		e.log.Info("candidate fan-out done",
			zap.Uint("candidate_id", id), zap.Int("scored", len(results)), zap.Duration("took", time.Since(start)))
		return printResults(cmd.OutOrStdout(), results)
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank <jobId>",
	Short: "Rescore a job and print its candidates ranked by final score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		ranked, err := e.matching.RankedMatchesForJob(cmd.Context(), e.db, id)
		if err != nil {
			e.log.Error("ranking failed", zap.Uint("job_id", id), zap.Error(err))
			return err
		}
		if err := printRanked(cmd.OutOrStdout(), ranked); err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("xlsx")
		if path == "" {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
			path += ".xlsx"
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.RankedMatchesToXLSX(f, ranked, time.Now()); err != nil {
			return err
		}
		e.log.Info("ranking exported", zap.String("file", path), zap.Int("candidates", ranked.TotalCandidates))
		return nil
	},
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Rescore every job against every candidate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			prompt := promptui.Prompt{
				Label:     "Rescore every stored job against every stored candidate",
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				return errAborted
			}
		}

		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		start := time.Now()
		summary, err := e.matching.RecalculateAllMatches(cmd.Context(), e.db)
		if err != nil {
			e.log.Error("recalculation failed", zap.Error(err))
			return err
		}
		e.log.Info("recalculation done",
			zap.Int("jobs", summary.Jobs),
			zap.Int("skipped", summary.Skipped),
			zap.Int("scored", summary.Scored),
			zap.Duration("took", time.Since(start)))
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the candidates, jobs and matches tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		if err := database.AutoMigrate(e.db); err != nil {
			return err
		}
		e.log.Info("schema migrated")
		return nil
	},
}

func init() {
	rankCmd.Flags().String("xlsx", "", "also write the ranking to this .xlsx file")
	recalculateCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(jobCmd, candidateCmd, rankCmd, recalculateCmd, migrateCmd)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", raw)
	}
	return uint(id), nil
}

func printResults(w io.Writer, results []*dto.MatchResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CANDIDATE\tJOB\tREQUIRED\tPREFERRED\tEXPERIENCE\tFINAL")
	for _, r := range results {
		fmt.Fprintf(tw, "%d %s\t%d %s\t%.2f\t%.2f\t%.2f\t%.2f\n",
			r.CandidateID, r.CandidateName, r.JobID, r.JobTitle,
			r.MatchScores.RequiredSkillsScore, r.MatchScores.PreferredSkillsScore,
			r.MatchScores.ExperienceScore, r.MatchScores.FinalMatchPercentage)
	}
	return tw.Flush()
}

func printRanked(w io.Writer, ranked *dto.RankedMatchesResponse) error {
	fmt.Fprintf(w, "%s (%s), %d candidates\n", ranked.JobTitle, ranked.CompanyName, ranked.TotalCandidates)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCANDIDATE\tFINAL\tMISSING REQUIRED")
	for _, c := range ranked.Candidates {
		fmt.Fprintf(tw, "%d\t%d %s\t%.2f\t%s\n",
			c.Rank, c.CandidateID, c.CandidateName,
			c.MatchScores.FinalMatchPercentage, strings.Join(c.MissingRequiredSkills, ", "))
	}
	return tw.Flush()
}
