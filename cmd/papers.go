package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "List papers in the local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		papers, err := st.PaperRepo().ListPapers(cmd.Context())
		if err != nil {
			return err
		}
		if len(papers) == 0 {
			fmt.Println("No papers found. Import one with: paperz seed <file.json>")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %s\n", "ID", "Imported", "Title")
		fmt.Println(strings.Repeat("─", 80))
		for _, p := range papers {
			fmt.Printf("%-36s  %-19s  %s\n",
				p.ID,
				p.ImportedAt.Local().Format("2006-01-02 15:04:05"),
				p.Title,
			)
		}
		return nil
	},
}
