package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"agency-cms/internal/cmsclient"
	"agency-cms/internal/content"
	"agency-cms/internal/editor"
	"agency-cms/internal/metadata"
)

// listedRow is one row as printed by content list.
type listedRow struct {
	ID    string         `json:"id" yaml:"id"`
	Order int            `json:"display_order" yaml:"display_order"`
	Label string         `json:"label" yaml:"label"`
	Row   map[string]any `json:"row" yaml:"row"`
}

// remoteCollection is a typed collection reached through the API.
type remoteCollection interface {
	list(ctx context.Context, visibleOnly bool) ([]listedRow, error)
	reorder(ctx context.Context, id string, to int) (editor.SaveReport, error)
}

type typedCollection[R content.Row[R]] struct {
	table editor.Table[R]
}

func (t typedCollection[R]) list(ctx context.Context, visibleOnly bool) ([]listedRow, error) {
	col := editor.New(t.table)
	if err := col.Load(ctx, content.Scope{VisibleOnly: visibleOnly}); err != nil {
		return nil, err
	}
	out := make([]listedRow, 0, col.Len())
	for _, it := range col.Items() {
		m, err := content.Encode(it.Row)
		if err != nil {
			return nil, err
		}
		out = append(out, listedRow{ID: it.Row.RowID(), Order: it.Row.RowOrder(), Label: label(m), Row: m})
	}
	return out, nil
}

func (t typedCollection[R]) reorder(ctx context.Context, id string, to int) (editor.SaveReport, error) {
	col := editor.New(t.table)
	if err := col.Load(ctx, content.Scope{}); err != nil {
		return editor.SaveReport{}, err
	}
	if err := col.Move(id, to); err != nil {
		return editor.SaveReport{}, err
	}
	report := col.Save(ctx)
	return report, report.Err
}

func remote[R content.Row[R]](c *cmsclient.Client, entity string) remoteCollection {
	visibility := ""
	for _, e := range metadata.Catalog() {
		if e.Name == entity {
			visibility = e.Visibility
		}
	}
	return typedCollection[R]{table: cmsclient.NewTable[R](c, entity, visibility)}
}

// collections uses the same names as the admin editors API.
func collections(c *cmsclient.Client) map[string]remoteCollection {
	return map[string]remoteCollection{
		"hero":           remote[content.HeroContent](c, metadata.HeroContent),
		"about":          remote[content.AboutContent](c, metadata.AboutContent),
		"services":       remote[content.Service](c, metadata.Services),
		"projects":       remote[content.Project](c, metadata.Projects),
		"team":           remote[content.TeamMember](c, metadata.TeamMembers),
		"testimonials":   remote[content.Testimonial](c, metadata.Testimonials),
		"footer":         remote[content.FooterContent](c, metadata.FooterContent),
		"social":         remote[content.SocialLink](c, metadata.SocialMediaLinks),
		"menu":           remote[content.MenuItem](c, metadata.MenuItems),
		"settings":       remote[content.SiteSetting](c, metadata.SiteSettings),
		"integrations":   remote[content.Integration](c, metadata.SiteIntegrations),
		"cookie-consent": remote[content.CookieConsentSettings](c, metadata.CookieConsentSettings),
		"smtp":           remote[content.SMTPSettings](c, metadata.SMTPSettings),
		"templates":      remote[content.EmailTemplate](c, metadata.EmailTemplates),
		"recipients":     remote[content.EmailRecipient](c, metadata.EmailRecipients),
	}
}

func lookup(c *cmsclient.Client, name string) (remoteCollection, error) {
	all := collections(c)
	col, ok := all[name]
	if !ok {
		names := make([]string, 0, len(all))
		for n := range all {
			names = append(names, n)
		}
		slices.Sort(names)
		return nil, fmt.Errorf("unknown collection %q (one of %v)", name, names)
	}
	return col, nil
}

var labelFields = []string{"title", "name", "label", "client_name", "platform", "setting_key", "company_name", "email", "host"}

func label(m map[string]any) string {
	for _, f := range labelFields {
		if s, ok := m[f].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func contentCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect and reorder content collections",
	}

	var (
		output  string
		visible bool
	)
	list := &cobra.Command{
		Use:   "list <collection>",
		Short: "List a collection in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context(), v, false)
			if err != nil {
				return err
			}
			col, err := lookup(c, args[0])
			if err != nil {
				return err
			}
			rows, err := col.list(cmd.Context(), visible)
			if err != nil {
				return err
			}
			return printRows(cmd.OutOrStdout(), rows, output)
		},
	}
	list.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	list.Flags().BoolVar(&visible, "visible", false, "only rows shown on the public site")

	reorder := &cobra.Command{
		Use:   "reorder <collection> <id> <to>",
		Short: "Move a row to a new position and renumber the collection",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("position must be a number: %w", err)
			}
			c, err := newClient(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			col, err := lookup(c, args[0])
			if err != nil {
				return err
			}
			report, err := col.reorder(cmd.Context(), args[1], to)
			if err != nil {
				return fmt.Errorf("reorder (%d updated before failure): %w", report.Updated, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) renumbered\n", report.Updated)
			return nil
		},
	}

	cmd.AddCommand(list, reorder)
	return cmd
}

func printRows(w io.Writer, rows []listedRow, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(rows)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ORDER\tID\tLABEL")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Order, r.ID, r.Label)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
