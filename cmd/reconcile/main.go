// Command reconcile runs a raw upstream payload through the reconciliation
// pipeline of one entity and prints the reconciled snapshot.
//
//	reconcile --entity dispatch --file dump.json
//	curl -s $WEBHOOK | reconcile -e history --format table
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/recon-dashboard/internal/config"
	"github.com/ignite/recon-dashboard/internal/entity"
	"github.com/ignite/recon-dashboard/internal/recon"
	"github.com/ignite/recon-dashboard/internal/screens"
)

type options struct {
	entity   string
	file     string
	timezone string
	format   string
	layout   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.Default().Engine
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Normalize and reconcile a raw upstream payload",
		Long: `Reads a JSON payload (a bare array, or rows under data/rows/body),
maps it onto the canonical schema of the chosen entity, collapses duplicate
rows last-write-wins and prints the result.

Entities: ` + strings.Join(entity.Names(), ", "),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.entity, "entity", "e", "", "entity to reconcile as")
	f.StringVarP(&opts.file, "file", "f", "-", "payload file, - for stdin")
	f.StringVar(&opts.timezone, "timezone", defaults.Timezone, "zone for dates without an offset")
	f.StringVar(&opts.format, "format", "json", "output format: json or table")
	f.StringVar(&opts.layout, "layout", defaults.DisplayLayout, "date layout used by the table format")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func run(stdin io.Reader, stdout io.Writer, opts *options) error {
	loc, err := config.EngineConfig{Timezone: opts.timezone}.Location()
	if err != nil {
		return err
	}

	payload, err := readPayload(stdin, opts.file)
	if err != nil {
		return err
	}

	snap, err := screens.NewService(screens.Sources{}, loc).Reconcile(opts.entity, payload)
	if err != nil {
		return fmt.Errorf("%w (known: %s)", err, strings.Join(entity.Names(), ", "))
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "table":
		schema, _ := entity.Lookup(opts.entity)
		return writeTable(stdout, schema, snap, opts.layout, loc)
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}

func readPayload(stdin io.Reader, file string) ([]byte, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

func writeTable(w io.Writer, schema recon.Schema, snap *screens.Snapshot, layout string, loc *time.Location) error {
	fmt.Fprintf(w, "%s: %d input, %d dropped, %d reconciled\n\n", snap.Entity, snap.Input, snap.Dropped, len(snap.Records))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	names := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		names[i] = f.Name
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))

	for _, rec := range snap.Records {
		cells := make([]string, len(schema.Fields))
		for i, f := range schema.Fields {
			cells[i] = cell(rec.Get(f.Name), layout, loc)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func cell(v recon.Value, layout string, loc *time.Location) string {
	switch {
	case v.Kind == recon.KindDate:
		return v.Instant.FormatDisplay(layout, loc)
	case v.Kind == recon.KindStatus:
		return string(recon.StatusValue(v.Code).Code)
	case !v.Known:
		return recon.UnknownText
	}
	return v.String()
}
