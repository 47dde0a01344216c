package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rubricsCmd = &cobra.Command{
	Use:   "rubrics",
	Short: "Validate a rubric catalog and list its exercises",
	Long: `Load the rubric catalog (built-in, RUBRIC_FILE or --rubrics), validate
every rubric and print one line per exercise. Exits non-zero when the
catalog is invalid, so it can gate catalog edits in CI.`,
	Args: cobra.NoArgs,
	RunE: runRubrics,
}

func runRubrics(cmd *cobra.Command, args []string) error {
	// без config.Load: проверка каталога не должна падать из-за браузерных настроек
	catalog, path, err := loadCatalog(os.Getenv("RUBRIC_FILE"))
	if err != nil {
		return err
	}
	if path == "" {
		path = "built-in"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "catalog: %s (%d exercises)\n\n", path, catalog.Len())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tPASS\tTOPIC")
	for _, r := range catalog.All() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.Kind, r.Threshold(), r.Topic)
	}
	return tw.Flush()
}
