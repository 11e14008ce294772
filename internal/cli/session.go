package cli

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session, roster and cost commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionUpdateCmd())
	cmd.AddCommand(newSessionConfirmCmd())
	cmd.AddCommand(newSessionTransitionCmd("complete", "Mark a session as played"))
	cmd.AddCommand(newSessionTransitionCmd("cancel", "Cancel a session"))
	cmd.AddCommand(newSessionJoinCmd())
	cmd.AddCommand(newSessionLeaveCmd())
	cmd.AddCommand(newSessionDeclineCmd())
	cmd.AddCommand(newSessionRemoveCmd())
	cmd.AddCommand(newSessionWaitlistCmd())
	cmd.AddCommand(newSessionCostCmd())
	cmd.AddCommand(newSessionLockCmd())

	return cmd
}

func sessionPath(id string) string {
	return "/api/v1/sessions/" + url.PathEscape(id)
}

// sessionSettings holds the flags shared by create and update
type sessionSettings struct {
	startsAt     string
	duration     int
	minPlayers   int
	maxPlayers   int
	courts       int
	costPerCourt string
	guestPool    string
	deadline     string
	notes        string
}

func (s *sessionSettings) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.startsAt, "starts-at", "", "Start time (RFC3339)")
	cmd.Flags().IntVar(&s.duration, "duration", 0, "Duration in minutes")
	cmd.Flags().IntVar(&s.minPlayers, "min", 0, "Minimum players")
	cmd.Flags().IntVar(&s.maxPlayers, "max", 0, "Maximum players")
	cmd.Flags().IntVar(&s.courts, "courts", 0, "Courts needed")
	cmd.Flags().StringVar(&s.costPerCourt, "cost-per-court", "", "Court cost per court, e.g. 48.00")
	cmd.Flags().StringVar(&s.guestPool, "guest-pool", "", "Amount per court shared by guests, e.g. 24.00")
	cmd.Flags().StringVar(&s.deadline, "deadline", "", "Payment deadline (RFC3339)")
	cmd.Flags().StringVar(&s.notes, "notes", "", "Notes for players")
}

// body returns the request fields for the flags the user set
func (s *sessionSettings) body(cmd *cobra.Command) (map[string]any, error) {
	req := map[string]any{}
	flags := cmd.Flags()

	for _, f := range []struct {
		flag, field, value string
	}{
		{"starts-at", "starts_at", s.startsAt},
		{"deadline", "payment_deadline", s.deadline},
	} {
		if !flags.Changed(f.flag) {
			continue
		}
		t, err := time.Parse(time.RFC3339, f.value)
		if err != nil {
			return nil, fmt.Errorf("--%s must be RFC3339, e.g. 2024-06-01T09:00:00Z", f.flag)
		}
		req[f.field] = t
	}

	ints := map[string]struct {
		field string
		value int
	}{
		"duration": {"duration_minutes", s.duration},
		"min":      {"min_players", s.minPlayers},
		"max":      {"max_players", s.maxPlayers},
		"courts":   {"courts_needed", s.courts},
	}
	for flag, f := range ints {
		if flags.Changed(flag) {
			req[f.field] = f.value
		}
	}

	if flags.Changed("cost-per-court") {
		req["cost_per_court"] = s.costPerCourt
	}
	if flags.Changed("guest-pool") {
		req["guest_pool_per_court"] = s.guestPool
	}
	if flags.Changed("notes") {
		req["notes"] = s.notes
	}
	return req, nil
}

func newSessionCreateCmd() *cobra.Command {
	var settings sessionSettings

	cmd := &cobra.Command{
		Use:   "create <pool-id>",
		Short: "Schedule a session in a pool you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := settings.body(cmd)
			if err != nil {
				return err
			}

			var result Session
			if err := client.Post(cmd.Context(), poolPath(args[0])+"/sessions", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	settings.register(cmd)
	_ = cmd.MarkFlagRequired("starts-at")

	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <pool-id>",
		Short: "List sessions in a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Session
			if err := client.Get(cmd.Context(), poolPath(args[0])+"/sessions", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <session-id>",
		Short: "Get session details and roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session
			if err := client.Get(cmd.Context(), sessionPath(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionUpdateCmd() *cobra.Command {
	var settings sessionSettings
	var clearDeadline bool

	cmd := &cobra.Command{
		Use:   "update <session-id>",
		Short: "Edit a scheduled session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := settings.body(cmd)
			if err != nil {
				return err
			}
			if clearDeadline {
				req["clear_deadline"] = true
			}
			if len(req) == 0 {
				return fmt.Errorf("nothing to update")
			}

			var result Session
			if err := client.Patch(cmd.Context(), sessionPath(args[0]), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	settings.register(cmd)
	cmd.Flags().BoolVar(&clearDeadline, "clear-deadline", false, "Remove the payment deadline")
	cmd.MarkFlagsMutuallyExclusive("deadline", "clear-deadline")

	return cmd
}

func newSessionConfirmCmd() *cobra.Command {
	var bookingIDs, courtNumbers []string
	var location string

	cmd := &cobra.Command{
		Use:   "confirm <session-id>",
		Short: "Confirm a session once courts are booked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			if len(bookingIDs) > 0 {
				req["booking_ids"] = bookingIDs
			}
			if len(courtNumbers) > 0 {
				req["court_numbers"] = courtNumbers
			}
			if location != "" {
				req["location"] = location
			}

			var result Session
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/confirm", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&bookingIDs, "booking", nil, "Court booking reference (repeatable)")
	cmd.Flags().StringSliceVar(&courtNumbers, "court", nil, "Court number (repeatable)")
	cmd.Flags().StringVar(&location, "location", "", "Venue")

	return cmd
}

func newSessionTransitionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <session-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/"+action, nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionJoinCmd() *cobra.Command {
	var playerID string

	cmd := &cobra.Command{
		Use:   "join <session-id>",
		Short: "Commit to a session, or join its waitlist when full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req map[string]string
			if playerID != "" {
				req = map[string]string{"player_id": playerID}
			}

			var result Participant
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/join", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Add another pool member (pool owner only)")

	return cmd
}

func newSessionLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <session-id>",
		Short: "Leave a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/leave", nil, nil); err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Left session %s", args[0]))
			return nil
		},
	}
}

func newSessionDeclineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decline <session-id>",
		Short: "Decline a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Participant
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/decline", nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <session-id> <participant-id>",
		Short: "Remove a participant from a session (pool owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := sessionPath(args[0]) + "/participants/" + url.PathEscape(args[1])
			if err := client.Delete(cmd.Context(), path); err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Removed %s from session %s", args[1], args[0]))
			return nil
		},
	}
}

func newSessionWaitlistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "waitlist <session-id>",
		Short: "Show the waitlist in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Participant
			if err := client.Get(cmd.Context(), sessionPath(args[0])+"/waitlist", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionCostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cost <session-id>",
		Short: "Show the session cost breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Cost
			if err := client.Get(cmd.Context(), sessionPath(args[0])+"/cost", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock <session-id>",
		Short: "Lock the roster and request payment from guests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/lock", nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
