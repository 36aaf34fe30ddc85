package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	json "github.com/goccy/go-json"

	"github.com/hrdesk/hrdesk/internal/rbac"
)

// WritePermissions prints the permission catalog as a table or as JSON.
func WritePermissions(w io.Writer, catalog *rbac.Catalog, asJSON bool) error {
	entries := catalog.ListAll()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", e.Key, e.DisplayName)
	}
	return tw.Flush()
}
