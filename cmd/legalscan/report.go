package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"legalscan/internal/legal"
	"legalscan/internal/workflow"
)

type resourceJSON struct {
	Path     string `json:"path"`
	Location string `json:"location"`
}

type archiveJSON struct {
	legal.Summary
	Declared   map[string]string `json:"declared,omitempty"`
	Undeclared map[string]string `json:"undeclared,omitempty"`
}

type entityJSON struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Reference string   `json:"reference,omitempty"`
	Archives  []string `json:"archives"`
	Text      string   `json:"text"`
}

type runReport struct {
	RunID          string        `json:"run_id"`
	Archives       []archiveJSON `json:"archives"`
	Entities       []entityJSON  `json:"entities"`
	MirrorFailures []string      `json:"mirror_failures,omitempty"`
	UnpackFailures []string      `json:"unpack_failures,omitempty"`
	Catalog        string        `json:"catalog,omitempty"`
}

func newRunReport(result *workflow.Result) runReport {
	report := runReport{
		RunID:    result.RunID,
		Archives: make([]archiveJSON, 0, len(result.Archives)),
		Entities: []entityJSON{},
		Catalog:  result.CatalogPath,
	}
	for _, a := range result.Archives {
		report.Archives = append(report.Archives, archiveJSON{
			Summary:    a.Summary(),
			Declared:   a.Legal,
			Undeclared: a.OtherLegal,
		})
	}
	if result.Store != nil {
		refs := result.Store.References()
		for _, kind := range []legal.Kind{legal.KindLicense, legal.KindNotice} {
			for _, e := range result.Store.Entities(kind) {
				item := entityJSON{ID: e.ID, Kind: string(kind), Text: e.Text}
				item.Reference, _ = refs.Match(e.Text)
				for _, a := range e.Archives() {
					item.Archives = append(item.Archives, a.RelPath)
				}
				report.Entities = append(report.Entities, item)
			}
		}
	}
	for _, f := range result.Mirror.Failures {
		report.MirrorFailures = append(report.MirrorFailures, f.Resource.RelPath)
	}
	for _, f := range result.UnpackFailures {
		report.UnpackFailures = append(report.UnpackFailures, f.RelPath)
	}
	return report
}

func printArchives(cmd *cobra.Command, archives []*legal.Archive) {
	out := cmd.OutOrStdout()
	if len(archives) == 0 {
		fmt.Fprintln(out, "No archives classified")
		return
	}
	rows := make([][]string, 0, len(archives))
	for _, a := range archives {
		s := a.Summary()
		rows = append(rows, []string{
			s.Path,
			s.Type,
			strconv.Itoa(s.Jars),
			dash(s.License),
			dash(s.Notice),
			strconv.Itoa(a.OtherLicenses.Len() + a.OtherNotices.Len()),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Archive", "Type", "Jars", "License", "Notice", "Undeclared"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight},
	))
}

func dash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

// writeJSON prints v indented. Document texts are written without HTML escaping.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
