package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/plan"
	"github.com/SARVESHVARADKAR123/biolink/internal/repository"
)

var planCmd = &cobra.Command{
	Use:   "plan <username>",
	Short: "Show the entitlements of a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := (&repository.ProfileRepo{DB: db}).GetByUsername(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load profile %q: %w", args[0], err)
	}

	svc := &plan.Service{Founders: &repository.FounderRepo{DB: db}}
	var r plan.Resolver
	printPlan(cmd.OutOrStdout(), p, svc.Entitlement(ctx, &r, p))
	return nil
}

func printPlan(out io.Writer, p *model.Profile, s plan.Snapshot) {
	maxLinks := "unlimited"
	if !s.Unlimited() {
		maxLinks = fmt.Sprint(s.MaxLinks)
	}
	fmt.Fprintf(out, "Profile:     @%s\n", p.Username)
	fmt.Fprintf(out, "Plan:        %s\n", p.Plan)
	if p.PlanExpires != nil {
		fmt.Fprintf(out, "Expires:     %s\n", p.PlanExpires.Format("2006-01-02"))
	}
	fmt.Fprintf(out, "Pro:         %t\n", s.IsPro)
	fmt.Fprintf(out, "Founder:     %t\n", s.IsFounder)
	fmt.Fprintf(out, "Max links:   %s\n", maxLinks)
	fmt.Fprintf(out, "Can upgrade: %t\n", s.CanUpgrade)
	fmt.Fprintf(out, "Founders:    %d\n", s.FounderCount)
}
