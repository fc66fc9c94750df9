package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cnpj-cowork/internal/cowork"
	"github.com/cnpj-cowork/internal/search"
)

// printResult writes one aligned table per street
func printResult(w io.Writer, result *search.Result) error {
	for _, group := range result.Streets {
		fmt.Fprintf(w, "Logradouro: %s (%d)\n", group.Street, len(group.Rows))

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(cowork.Columns, "\t"))
		for _, row := range group.Rows {
			fmt.Fprintln(tw, strings.Join(row.Values(), "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}
