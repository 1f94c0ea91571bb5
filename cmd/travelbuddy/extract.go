package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/importer"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/observability"
)

type extractOptions struct {
	source string
	tripID string
	url    string
	asJSON bool
}

func newExtractCommand(c *commandContext) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract place candidates from content (stdin when no file is given)",
		Long: "Extract place candidates from a transcript, caption, post, or pasted text.\n" +
			"With --trip the candidates are imported into that trip and the import summary is shown.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runExtract(cmd.Context(), c, opts, content, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.source, "source", "s", string(domain.SourceText), "Source type: youtube, instagram, reddit, or text")
	cmd.Flags().StringVar(&opts.tripID, "trip", "", "Import the candidates into this trip id")
	cmd.Flags().StringVar(&opts.url, "url", "", "Original URL recorded as the item source")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func readContent(stdin io.Reader, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}

func runExtract(ctx context.Context, c *commandContext, opts *extractOptions, content string, out io.Writer) error {
	cfg, logger := c.cfg, c.logger
	metrics := observability.NewMetrics()

	source, ok := domain.ParseSourceType(opts.source)
	if !ok {
		return fmt.Errorf("unknown source type %q", opts.source)
	}

	var tripID uuid.UUID
	if opts.tripID != "" {
		id, err := uuid.Parse(opts.tripID)
		if err != nil {
			return fmt.Errorf("invalid trip id: %w", err)
		}
		tripID = id
	}

	// The store is only needed when importing.
	var store importer.ItemStore
	if tripID != uuid.Nil {
		s, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	svc, err := newServices(ctx, cfg, store, logger, metrics)
	if err != nil {
		return err
	}

	if tripID == uuid.Nil {
		candidates, err := svc.agent.Extract(ctx, content, source)
		if err != nil {
			return err
		}
		if opts.asJSON {
			return writeJSON(out, candidates)
		}
		fmt.Fprintln(out, renderCandidates(candidates))
		return nil
	}

	summary, err := svc.importer.ImportContent(ctx, tripID, content, source, domain.SourceAttribution{URL: opts.url, Type: source})
	if err != nil {
		return err
	}
	if opts.asJSON {
		return writeJSON(out, summary)
	}
	fmt.Fprintln(out, renderSummary(summary))
	return nil
}

func renderCandidates(candidates []domain.Candidate) string {
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Name,
			string(c.Category),
			c.LocationHint,
			truncate(c.Description, 60),
		})
	}
	return renderTable(
		[]string{"#", "Name", "Category", "Location", "Description"},
		rows,
		[]columnAlignment{alignRight},
	)
}

func renderSummary(s importer.Summary) string {
	rows := make([][]string, 0, s.Total())
	for _, it := range s.SavedItems {
		area := it.AreaName
		if area == "" {
			area = it.LocationName
		}
		rows = append(rows, []string{"saved", it.Name, area, ""})
	}
	for _, sk := range s.Skipped {
		matched := ""
		if sk.MatchedItemID != nil {
			matched = sk.MatchedItemID.String()
		}
		rows = append(rows, []string{"duplicate", sk.Name, "", matched})
	}
	for _, f := range s.Failures {
		rows = append(rows, []string{"failed", f.Name, "", truncate(f.Error, 60)})
	}

	var b strings.Builder
	b.WriteString(renderTable([]string{"Outcome", "Name", "Area", "Detail"}, rows, nil))
	fmt.Fprintf(&b, "\nsaved %d, skipped %d duplicate(s), failed %d in %s",
		s.SavedCount, s.SkippedDuplicateCount, s.FailedCount, s.Duration.Round(time.Millisecond))
	return b.String()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
