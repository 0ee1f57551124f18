package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/muleflow/pkg/catalog"
)

func (c *CLI) componentsCommand() *cobra.Command {
	var overrides, category string

	cmd := &cobra.Command{
		Use:   "components",
		Short: "List the component catalog",
		Long: `List the Mule elements muleflow recognises, with their category and the
colour used to draw them. Pass --components to preview a catalog overrides
file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(overrides)
			if err != nil {
				return err
			}
			return writeComponents(cmd.OutOrStdout(), cat, category)
		},
	}

	cmd.Flags().StringVar(&overrides, "components", "", "TOML file extending the component catalog")
	cmd.Flags().StringVar(&category, "category", "", "only list components of this category")
	return cmd
}

// writeComponents renders the catalog as a table, optionally filtered by
// category.
func writeComponents(w io.Writer, cat *catalog.Catalog, category string) error {
	var rows [][]string
	for _, comp := range cat.All() {
		if category != "" && comp.Category != category {
			continue
		}
		rows = append(rows, []string{
			comp.Key(),
			comp.Category,
			check(comp.Source),
			check(comp.Async),
			cat.Color(comp.Category),
		})
	}
	if len(rows) == 0 {
		return fmt.Errorf("no components in category %q", category)
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Element", "Category", "Source", "Async", "Colour").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 4 {
				hex := rows[row][4]
				return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
			}
			return lipgloss.NewStyle()
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("  %d components", len(rows))))
	return nil
}

func check(b bool) string {
	if b {
		return "✓"
	}
	return strings.Repeat(" ", 1)
}
