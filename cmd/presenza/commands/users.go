package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect and manage registered users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore(store)

		users, err := store.Users(cmd.Context())
		if err != nil {
			return err
		}

		if formatOutput == "json" {
			return printJSON(users)
		}
		if len(users) == 0 {
			fmt.Println("No users registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tLANG\tVOICE\tFACE\tCREATED")
		for _, u := range users {
			vps, err := store.Voiceprints(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			fps, err := store.Faceprints(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				u.ID, u.DisplayName, u.Lang, len(vps), len(fps),
				u.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var usersShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show one user with template details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore(store)

		u, err := store.User(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		vps, err := store.Voiceprints(cmd.Context(), u.ID)
		if err != nil {
			return err
		}
		fps, err := store.Faceprints(cmd.Context(), u.ID)
		if err != nil {
			return err
		}

		if formatOutput == "json" {
			return printJSON(map[string]any{
				"user":        u,
				"voiceprints": len(vps),
				"faceprints":  len(fps),
			})
		}

		fmt.Printf("%s (%s)\n", u.DisplayName, u.ID)
		fmt.Printf("  lang:    %s\n", orDash(u.Lang))
		fmt.Printf("  active:  %v\n", u.Active)
		fmt.Printf("  created: %s\n", u.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  voiceprints: %d\n", len(vps))
		for _, vp := range vps {
			fmt.Printf("    dim=%d score=%.2f at %s\n",
				len(vp.Embedding), vp.Score, vp.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("  faceprints: %d\n", len(fps))
		for _, fp := range fps {
			fmt.Printf("    dim=%d score=%.2f det=%.2f at %s\n",
				len(fp.Embedding), fp.Score, fp.DetScore, fp.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user and all their templates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore(store)

		// Surface a clear error for unknown IDs before the idempotent
		// delete would silently succeed.
		u, err := store.User(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := store.DeleteUser(cmd.Context(), u.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted %s (%s)\n", u.DisplayName, u.ID)
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	usersCmd.AddCommand(usersListCmd, usersShowCmd, usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
}
