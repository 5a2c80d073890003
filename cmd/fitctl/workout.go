package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fitagent/agent"
	"fitagent/bulk"
	"fitagent/gateway"
	"fitagent/lifecycle"
	"fitagent/resolve"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts (or resumes) the day's workout session",
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}

		session, err := facade.StartWorkout(cmd.Context(), caller(), flagDate, flagNotes)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}

		fmt.Printf("✅ Session %d on %s (%s)\n", session.ID, session.ScheduledDate, session.Status)
		return nil
	},
}

var addExerciseCmd = &cobra.Command{
	Use:   "add-exercise [name]...",
	Short: "Attaches exercises to the day's session by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}

		kind := gateway.ExerciseStrength
		if flagCardio {
			kind = gateway.ExerciseCardio
		}
		requests := make([]agent.ExerciseRequest, 0, len(args))
		for _, name := range args {
			requests = append(requests, agent.ExerciseRequest{Name: name, Kind: kind})
		}

		result, err := facade.AddExercises(cmd.Context(), caller(), flagDate, requests)
		if err != nil {
			return fmt.Errorf("failed to add exercises: %w", err)
		}

		for _, outcome := range result.Outcomes {
			switch outcome.State {
			case resolve.Resolved.String():
				fmt.Printf("✅ %s attached (detail %d)\n", outcome.Query, outcome.Detail.ID)
			case resolve.Ambiguous.String():
				header := color.New(color.FgYellow, color.Bold).Sprintf("❓ %q matches several exercises:", outcome.Query)
				fmt.Println(header)
				for _, c := range outcome.Candidates {
					fmt.Printf("  • %s\n", c.Name)
				}
			default:
				fmt.Println(color.New(color.FgRed).Sprintf("✗ no exercise matches %q", outcome.Query))
			}
		}
		return nil
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Shows the session log for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}

		sessionLog, err := facade.GetSessionLog(cmd.Context(), caller(), flagDate)
		if err != nil {
			return fmt.Errorf("failed to read session log: %w", err)
		}

		cyanBold := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%s %s (%s)\n", cyanBold("Session"), sessionLog.Session.ScheduledDate, sessionLog.Session.Status)
		for _, ex := range sessionLog.Exercises {
			fmt.Printf("  %s %d (detail %d, %s)\n", cyanBold("exercise"), ex.Detail.ExerciseID, ex.Detail.ID, ex.Detail.ExerciseType)
			for _, s := range ex.Sets {
				if s.DurationSeconds > 0 {
					fmt.Printf("    • set %d: %ds [%s]\n", s.ID, s.DurationSeconds, s.Status)
					continue
				}
				fmt.Printf("    • set %d: %d/%d reps @ %.1fkg [%s]\n", s.ID, s.ActualReps, s.PlannedReps, s.WeightKg, s.Status)
			}
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every session in a calendar month",
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}

		sessions, err := facade.ListMonthSessions(cmd.Context(), caller(), flagMonth)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Printf("No sessions in %s\n", flagMonth)
			return nil
		}

		for _, s := range sessions {
			fmt.Printf("  • %d %s (%s)\n", s.ID, s.ScheduledDate, s.Status)
		}
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete [session-id]",
	Short: "Marks a session completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		if err := facade.CompleteSession(cmd.Context(), caller(), id, flagNotes); err != nil {
			return fmt.Errorf("failed to complete session: %w", err)
		}

		fmt.Printf("✅ Session %d completed\n", id)
		return nil
	},
}

var deleteSessionsCmd = &cobra.Command{
	Use:   "delete-sessions [id]...",
	Short: "Deletes sessions by id, or by date range with --from/--to",
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}

		var result bulk.Result
		if flagFrom != "" || flagTo != "" {
			res, err := facade.DeleteSessionRange(cmd.Context(), caller(), flagFrom, flagTo)
			if err != nil {
				return fmt.Errorf("failed to delete sessions: %w", err)
			}
			result = res
		} else {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			res, err := facade.DeleteSessions(cmd.Context(), caller(), ids)
			if err != nil {
				return fmt.Errorf("failed to delete sessions: %w", err)
			}
			result = res
		}

		printBulkResult(result)
		return nil
	},
}

var recordSetCmd = &cobra.Command{
	Use:   "record-set [session-id] [detail-id] [set-id]",
	Short: "Records actuals for one planned set",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}

		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		actual := lifecycle.ActualSet{
			Reps:            flagReps,
			WeightKg:        flagWeight,
			DurationSeconds: flagDuration,
			Notes:           flagNotes,
			Completed:       flagDone,
		}
		set, err := facade.RecordSet(cmd.Context(), caller(), ids[0], ids[1], ids[2], actual)
		if err != nil {
			return fmt.Errorf("failed to record set: %w", err)
		}

		fmt.Printf("✅ Set %d is now %s\n", set.ID, set.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd, addExerciseCmd, logCmd, listCmd, completeCmd, deleteSessionsCmd, recordSetCmd)

	for _, c := range []*cobra.Command{startCmd, addExerciseCmd, logCmd} {
		c.Flags().StringVar(&flagDate, "date", today(), "Session date (YYYY-MM-DD)")
	}
	startCmd.Flags().StringVar(&flagNotes, "notes", "", "Session notes")
	completeCmd.Flags().StringVar(&flagNotes, "notes", "", "Completion note")
	addExerciseCmd.Flags().BoolVar(&flagCardio, "cardio", false, "Attach as cardio instead of strength")
	listCmd.Flags().StringVar(&flagMonth, "month", time.Now().Format("2006-01"), "Calendar month (YYYY-MM)")
	deleteSessionsCmd.Flags().StringVar(&flagFrom, "from", "", "Range start (YYYY-MM-DD)")
	deleteSessionsCmd.Flags().StringVar(&flagTo, "to", "", "Range end (YYYY-MM-DD)")
	recordSetCmd.Flags().IntVar(&flagReps, "reps", 0, "Actual reps")
	recordSetCmd.Flags().Float64Var(&flagWeight, "weight", 0, "Weight in kg")
	recordSetCmd.Flags().IntVar(&flagDuration, "duration", 0, "Duration in seconds")
	recordSetCmd.Flags().StringVar(&flagNotes, "notes", "", "Set notes")
	recordSetCmd.Flags().BoolVar(&flagDone, "done", true, "Mark the set completed")
}
