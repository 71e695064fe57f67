package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/config"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/scan"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/seed"
)

// filterFlags binds --type and --status to a list request.
type filterFlags struct {
	contentType string
	status      string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.contentType, "type", "", "only items of this content type")
	cmd.Flags().StringVar(&f.status, "status", "", "only items with this status")
}

func (f *filterFlags) request() sitecontent.ListItemsRequest {
	var req sitecontent.ListItemsRequest
	if f.contentType != "" {
		t := sitecontent.ContentType(f.contentType)
		req.Type = &t
	}
	if f.status != "" {
		s := sitecontent.ContentStatus(f.status)
		req.Status = &s
	}
	return req
}

func newSeedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <location>",
		Short: "Create items from a seed document",
		Long: `Create every item in a seed document, in order. The location is a local
path, a file:// URL or an s3://bucket/key URL. Items that fail validation or
collide with an existing id are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session, out io.Writer) error {
				seeder := seed.NewSeeder(s.service, s.resolver, s.logger)
				result, err := seeder.Run(cmd.Context(), args[0])
				if result != nil {
					for _, item := range result.Created() {
						fmt.Fprintf(out, "created %s\n", item.ID)
					}
					for _, f := range result.Failed() {
						fmt.Fprintf(out, "failed  #%d (%s): %v\n", f.Index, f.Input.Slug, f.Err)
					}
					fmt.Fprintf(out, "%d created, %d failed\n", len(result.Created()), len(result.Failed()))
				}
				return err
			})
		},
	}
}

func newExportCommand(a *app) *cobra.Command {
	var filter filterFlags
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write items as a seed document",
		Long: `Write matching items as a seed document to stdout, a local path or an
s3://bucket/key URL. The output can be loaded again with "contentctl seed".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session, out io.Writer) error {
				exporter := &scan.Exporter{}
				if _, err := scan.New(s.service, s.logger).Scan(cmd.Context(), scan.ScanOptions{
					Filter:    filter.request(),
					Processor: exporter,
				}); err != nil {
					return err
				}

				if output == "" || output == "-" {
					_, err := exporter.WriteTo(out)
					return err
				}

				var buf bytes.Buffer
				if _, err := exporter.WriteTo(&buf); err != nil {
					return err
				}
				sink, err := s.resolver.Sink(output)
				if err != nil {
					return err
				}
				if err := sink.Write(cmd.Context(), output, &buf); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d items to %s\n", exporter.Len(), output)
				return nil
			})
		},
	}

	filter.register(cmd)
	cmd.Flags().StringVarP(&output, "out", "o", "", "output location (default: stdout)")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var filter filterFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session, out io.Writer) error {
				items, err := s.service.ListItems(cmd.Context(), filter.request())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, items)
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tSLUG\tTITLE\tUPDATED")
				for _, item := range items {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						item.ID, item.Type, item.Status, item.Slug, item.Title, item.UpdatedAt)
				}
				return tw.Flush()
			})
		},
	}

	filter.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print items as JSON")
	return cmd
}

func newGetCommand(a *app) *cobra.Command {
	var bySlug bool
	var contentType string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print one item as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session, out io.Writer) error {
				var item *sitecontent.Item
				var err error
				if bySlug {
					var t *sitecontent.ContentType
					if contentType != "" {
						ct := sitecontent.ContentType(contentType)
						t = &ct
					}
					item, err = s.service.GetItemBySlug(cmd.Context(), args[0], t)
				} else {
					item, err = s.service.GetItem(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				return writeJSON(out, item)
			})
		},
	}

	cmd.Flags().BoolVar(&bySlug, "slug", false, "treat the argument as a slug")
	cmd.Flags().StringVar(&contentType, "type", "", "narrow a slug lookup to one content type")
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session, out io.Writer) error {
				deleted, _, err := s.service.DeleteItem(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("item %s not found", args[0])
				}
				fmt.Fprintf(out, "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	var filter filterFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count items by type and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session, out io.Writer) error {
				stats := scan.NewStats()
				if _, err := scan.New(s.service, s.logger).Scan(cmd.Context(), scan.ScanOptions{
					Filter:    filter.request(),
					Processor: stats,
				}); err != nil {
					return err
				}
				return writeJSON(out, stats.Summary())
			})
		},
	}

	filter.register(cmd)
	return cmd
}

func newSetStatusCommand(a *app) *cobra.Command {
	var filter filterFlags
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "set-status <status> [id...]",
		Short: "Publish, archive or unpublish items",
		Long: `Move items to a status. With ids, only those items change; without, every
item matching --type and --status does.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := sitecontent.ContentStatus(args[0])
			if !status.IsValid() {
				return fmt.Errorf("invalid status %q", args[0])
			}

			return a.withSession(cmd, func(s *session, out io.Writer) error {
				if ids := args[1:]; len(ids) > 0 {
					for _, id := range ids {
						item, err := setStatus(cmd, s.service, id, status)
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "%s -> %s\n", item.ID, item.Status)
					}
					return nil
				}

				result, err := scan.New(s.service, s.logger).Scan(cmd.Context(), scan.ScanOptions{
					Filter:    filter.request(),
					Processor: scan.StatusSetter{Service: s.service, Status: status},
					DryRun:    dryRun,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d updated, %d failed\n", result.TotalProcessed, result.TotalFailed)
				return nil
			})
		},
	}

	filter.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report matching items without changing them")
	return cmd
}

func setStatus(cmd *cobra.Command, svc sitecontent.Service, id string, status sitecontent.ContentStatus) (*sitecontent.Item, error) {
	switch status {
	case sitecontent.ContentStatusPublished:
		return sitecontent.Publish(cmd.Context(), svc, id)
	case sitecontent.ContentStatusArchived:
		return sitecontent.Archive(cmd.Context(), svc, id)
	default:
		return svc.UpdateItem(cmd.Context(), id, sitecontent.UpdateItemRequest{Status: &status})
	}
}

func newEnvCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the environment variables contentctl reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, err := config.Usage()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), usage)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
