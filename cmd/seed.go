package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/paperz/internal/backend"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.json>...",
	Short: "Import paper JSON files into the local database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		b := backend.New(st.PaperRepo(), cfg.Service.UserID)
		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			p, err := b.ImportPaper(cmd.Context(), raw)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			fmt.Printf("Imported %s: %q (%d exercises, %d items)\n", p.ID, p.Title, len(p.Exercises), p.ItemCount())
		}
		return nil
	},
}
