package cli

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Pool management commands",
	}

	cmd.AddCommand(newPoolCreateCmd())
	cmd.AddCommand(newPoolListCmd())
	cmd.AddCommand(newPoolGetCmd())
	cmd.AddCommand(newPoolJoinCmd())
	cmd.AddCommand(newPoolAddMemberCmd())
	cmd.AddCommand(newPoolRemoveMemberCmd())
	cmd.AddCommand(newPoolDeactivateCmd())

	return cmd
}

func poolPath(id string) string {
	return "/api/v1/pools/" + url.PathEscape(id)
}

func newPoolCreateCmd() *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new pool you own",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": name}
			if description != "" {
				req["description"] = description
			}

			var result Pool
			if err := client.Post(cmd.Context(), "/api/v1/pools", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Pool name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Pool description")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPoolListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pools you belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Pool
			if err := client.Get(cmd.Context(), "/api/v1/pools", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPoolGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <pool-id>",
		Short: "Get pool details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Pool
			if err := client.Get(cmd.Context(), poolPath(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPoolJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <invite-code>",
		Short: "Join a pool with an invite code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"invite_code": args[0]}

			var result Pool
			if err := client.Post(cmd.Context(), "/api/v1/pools/join", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPoolAddMemberCmd() *cobra.Command {
	var playerID, name, email string

	cmd := &cobra.Command{
		Use:   "add-member <pool-id>",
		Short: "Add a player to a pool",
		Long: `Add an existing player by --player, or create a guest player with --name
(and optionally --email) and add them to the pool.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if playerID == "" && name == "" {
				return fmt.Errorf("--player or --name is required")
			}
			path := poolPath(args[0]) + "/members"

			if playerID != "" {
				var result Pool
				if err := client.Post(cmd.Context(), path, map[string]string{"player_id": playerID}, &result); err != nil {
					return err
				}
				output(cmd).Print(result)
				return nil
			}

			req := map[string]string{"name": name}
			if email != "" {
				req["email"] = email
			}
			var guest Player
			if err := client.Post(cmd.Context(), path, req, &guest); err != nil {
				return err
			}
			output(cmd).Print(guest)
			return nil
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Existing player ID")
	cmd.Flags().StringVar(&name, "name", "", "Name for a new guest player")
	cmd.Flags().StringVar(&email, "email", "", "Email for a new guest player")
	cmd.MarkFlagsMutuallyExclusive("player", "name")

	return cmd
}

func newPoolRemoveMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-member <pool-id> <player-id>",
		Short: "Remove a player from a pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), poolPath(args[0])+"/members/"+url.PathEscape(args[1])); err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Removed %s from pool %s", args[1], args[0]))
			return nil
		},
	}
}

func newPoolDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <pool-id>",
		Short: "Deactivate a pool you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Pool
			if err := client.Do(cmd.Context(), http.MethodDelete, poolPath(args[0]), nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
