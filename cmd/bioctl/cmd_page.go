package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/SARVESHVARADKAR123/biolink/internal/page"
	"github.com/SARVESHVARADKAR123/biolink/internal/repository"
)

var pageFlags struct {
	asJSON bool
}

var pageCmd = &cobra.Command{
	Use:   "page <username>",
	Short: "Load a public page the way visitors see it",
	Args:  cobra.ExactArgs(1),
	RunE:  runPage,
}

func init() {
	pageCmd.Flags().BoolVar(&pageFlags.asJSON, "json", false, "Print the page as JSON")
}

func runPage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	o := page.NewOrchestrator(
		&repository.ProfileRepo{DB: db},
		&repository.LinkRepo{DB: db},
		&repository.SocialLinkRepo{DB: db},
		page.DefaultConfig(),
	)
	o.OnChange(func(s page.State) {
		if s.Status == page.StatusLoading && s.RetryCount > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "retrying (%d)...\n", s.RetryCount)
		}
	})

	data, err := o.Load(ctx, args[0])
	if err != nil {
		if o.State().NotFound() {
			return fmt.Errorf("no page for %q", args[0])
		}
		return fmt.Errorf("%s: %w", page.UserMessage(err), err)
	}

	if pageFlags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	printPage(out, data)
	return nil
}

func printPage(out io.Writer, d *page.PageData) {
	p := d.Profile
	fmt.Fprintf(out, "%s (@%s)\n", p.Name, p.Username)
	fmt.Fprintf(out, "Plan:    %s\n", p.Plan)
	fmt.Fprintf(out, "Theme:   %s %s/%s\n", p.Theme, p.ButtonColor, p.TextColor)
	fmt.Fprintf(out, "Links:   (%d)\n", len(d.Links))
	for _, l := range d.Links {
		fmt.Fprintf(out, "  [%s] %s -> %s (%d clicks)\n", l.Icon, l.Title, l.URL, l.ClickCount)
	}
	if len(d.SocialLinks) > 0 {
		fmt.Fprintf(out, "Social:\n")
		for _, s := range d.SocialLinks {
			fmt.Fprintf(out, "  %s: %s\n", s.Platform, s.URL)
		}
	}
}
