// Command radiomobile parses a RadioMobile text report and prints it in one
// of several forms.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/signalsfoundry/radiomobile/internal/export"
	"github.com/signalsfoundry/radiomobile/internal/ingest"
	"github.com/signalsfoundry/radiomobile/internal/logging"
	"github.com/signalsfoundry/radiomobile/internal/scenario"
	"github.com/signalsfoundry/radiomobile/internal/summary"
	"github.com/signalsfoundry/radiomobile/model"
)

const usage = `usage: radiomobile [flags] REPORT_FILE

Output formats (-output):
  text      human readable dump (default)
  json      report as JSON, collections in file order
  summary   simulation summary: nodes and nets with distances
  scenario  simulation scenario JSON
  xlsx      workbook with units, systems, members and links
  csv       links as CSV

With -net the members of that net are listed instead, optionally filtered
by -roles (comma separated: Node,Master,Terminal,Slave).

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("radiomobile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("output", "text", "output format: text, json, summary, scenario, xlsx or csv")
	encoding := fs.String("encoding", "auto", "report encoding: auto, utf-8, latin1 or windows-1252")
	outPath := fs.String("o", "", "write output to this file instead of stdout")
	netName := fs.String("net", "", "list the members of this net")
	roles := fs.String("roles", "", "with -net, comma separated roles to keep")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg := logging.ConfigFromEnv()
	cfg.Output = stderr
	log := logging.New(cfg)
	ctx := context.Background()

	enc, err := ingest.ParseEncoding(*encoding)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error(ctx, "cannot read report", logging.Path(path), logging.Err(err))
		return 1
	}
	report, err := ingest.NewLoader(nil, nil, log, enc).ParseBytes(ctx, path, data)
	if err != nil {
		log.Error(ctx, "cannot parse report", logging.Err(err))
		return 1
	}

	w := stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Error(ctx, "cannot create output", logging.Path(*outPath), logging.Err(err))
			return 1
		}
		defer f.Close()
		w = f
	}

	if *netName != "" {
		err = writeMembers(w, report, *netName, *roles)
	} else {
		err = write(w, report, *output)
	}
	if err != nil {
		log.Error(ctx, "cannot render report", logging.String("output", *output), logging.Err(err))
		return 1
	}
	return 0
}

var errUnknownOutput = errors.New("unknown output format")

func write(w io.Writer, r *model.Report, output string) error {
	switch output {
	case "text":
		return writeText(w, r)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "summary":
		s, err := summary.Generate(r)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	case "scenario":
		s, err := scenario.Build(r)
		if err != nil {
			return err
		}
		return s.Write(w)
	case "xlsx":
		return export.WriteXLSX(w, r)
	case "csv":
		data, err := export.LinksCSV(r)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("%w %q", errUnknownOutput, output)
}

func writeMembers(w io.Writer, r *model.Report, net, roles string) error {
	var filter []model.Role
	for _, label := range strings.Split(roles, ",") {
		if label = strings.TrimSpace(label); label == "" {
			continue
		}
		role, err := model.ParseRole(label)
		if err != nil {
			return err
		}
		filter = append(filter, role)
	}
	names, err := r.MembersWithRole(net, filter...)
	if err != nil {
		return err
	}
	for _, n := range names {
		if _, err := fmt.Fprintln(w, n); err != nil {
			return err
		}
	}
	return nil
}

func writeText(w io.Writer, r *model.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Generated: %s\n\n", r.GeneratedOn.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(tw, "General information")
	for _, line := range r.GeneralInformation {
		fmt.Fprintf(tw, "  %s\n", line)
	}

	fmt.Fprintln(tw, "\nUnits")
	for name, u := range r.Units.All() {
		fmt.Fprintf(tw, "  %s\t%.5f,%.5f\t%d m\t(%d, %d)\n",
			name, u.Coords.Latitude, u.Coords.Longitude, u.Elevation, u.Meters.X, u.Meters.Y)
	}

	fmt.Fprintln(tw, "\nSystems")
	for name, s := range r.Systems.All() {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			name, s.PwrTx, s.Loss, s.LossPlus, s.RxThr, s.AntG, s.AntType)
	}

	fmt.Fprintln(tw, "\nNets")
	for name, n := range r.Nets.All() {
		fmt.Fprintf(tw, "  %s (max quality %d)\n", name, n.MaxQuality)
		for member, m := range n.Members.All() {
			fmt.Fprintf(tw, "    %s\t%s\t%s\t%s\n", member, m.Role, m.System, m.Antenna)
		}
		for _, l := range n.Links {
			fmt.Fprintf(tw, "    %s <-> %s\tquality %d\t%d m\t\n", l.Peers[0], l.Peers[1], l.Quality, l.Distance)
		}
	}
	return tw.Flush()
}
