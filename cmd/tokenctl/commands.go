package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	appservices "github.com/fr0stylo/tokengate/internal/app/services"
)

const toolActor = "tokenctl"

func newPauseCmd(env func() *toolEnv, paused bool) *cobra.Command {
	use, short := "pause", "Stop admitting publish requests globally"
	if !paused {
		use, short = "resume", "Resume admitting publish requests"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env().policy.SetPublishingPaused(cmd.Context(), paused, toolActor); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "publishing paused=%t\n", paused)
			return nil
		},
	}
}

func newAutopostCmd(env func() *toolEnv) *cobra.Command {
	var (
		orgID    string
		disabled bool
	)
	cmd := &cobra.Command{
		Use:   "autopost",
		Short: "Enable or disable autopost for an organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env().policy.SetAutopost(cmd.Context(), orgID, !disabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "org=%s autopost=%t\n", orgID, !disabled)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().BoolVar(&disabled, "disable", false, "disable instead of enable")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func newContentStatusCmd(env func() *toolEnv) *cobra.Command {
	var orgID, status string
	cmd := &cobra.Command{
		Use:   "content-status <content-item-id>",
		Short: "Set the approval status of a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env().policy.SetContentStatus(cmd.Context(), orgID, args[0], domain.ContentStatus(strings.TrimSpace(status))); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "org=%s content=%s status=%s\n", orgID, args[0], status)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&status, "status", string(domain.ContentApproved), "draft, approved or rejected")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func newGrantCmd(env func() *toolEnv) *cobra.Command {
	var (
		userID int64
		orgID  string
		role   string
	)
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant an operator a role in an organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			membership := domain.Membership{UserID: userID, OrganizationID: strings.TrimSpace(orgID), Role: domain.Role(strings.ToLower(strings.TrimSpace(role)))}
			if err := env().operators.Grant(cmd.Context(), membership); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user=%d org=%s role=%s\n", membership.UserID, membership.OrganizationID, membership.Role)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "operator user id")
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "owner, admin or member")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func newSeedDummyCmd(env func() *toolEnv) *cobra.Command {
	var orgID, provider, token string
	cmd := &cobra.Command{
		Use:   "seed-dummy-token",
		Short: "Store a non-refreshable placeholder token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			platform, err := parsePlatform(provider)
			if err != nil {
				return err
			}
			if strings.TrimSpace(token) == "" {
				token = "dummy-" + uuid.NewString()
			}
			stored, err := env().tokens.SeedDummyToken(cmd.Context(), orgID, platform, token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded token version %d for account %d\n", stored.ID, stored.SocialAccountID)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&provider, "provider", "", "meta, linkedin, google or youtube")
	cmd.Flags().StringVar(&token, "token", "", "access token value (random when empty)")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

func newTokenStatusCmd(env func() *toolEnv) *cobra.Command {
	var orgID, provider string
	cmd := &cobra.Command{
		Use:   "token-status",
		Short: "Print the redacted token status of an organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			platform, err := parsePlatform(provider)
			if err != nil {
				return err
			}
			status, err := env().tokens.TokenStatus(cmd.Context(), orgID, platform)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&provider, "provider", "", "meta, linkedin, google or youtube")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

func newAuditCmd(env func() *toolEnv) *cobra.Command {
	var (
		orgID string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recent token audit records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("%w: limit must be positive", appservices.ErrInvalidRequest)
			}
			records, err := env().store.ListAudit(cmd.Context(), orgID, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tEVENT\tPROVIDER\tACCOUNT\tSUCCESS\tCORRELATION\tREASON")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\t%s\n",
					r.CreatedAt.UTC().Format(time.RFC3339), r.Event, r.Provider, r.SocialAccountID, r.Success, r.CorrelationID, r.Reason)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum records")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}
