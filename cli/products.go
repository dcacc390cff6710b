package cli

import (
	"fmt"

	"github.com/junaidrashid-git/storefront/catalog"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx"
)

func NewProductsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Bulk import or export the catalog as an Excel workbook",
	}
	cmd.AddCommand(newProductsExportCommand(opts), newProductsImportCommand(opts))
	return cmd
}

func newProductsExportCommand(opts *RootOptions) *cobra.Command {
	var brand string
	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write every product to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			products, err := s.ListProducts(cmd.Context(), brand)
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}
			file, err := catalog.Export(products)
			if err != nil {
				return err
			}
			if err := file.Save(args[0]); err != nil {
				return fmt.Errorf("save %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📦 exported %d products to %s\n", len(products), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&brand, "brand", "", "only export this brand")
	return cmd
}

func newProductsImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Create or update products from a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			file, err := xlsx.OpenFile(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			res, err := catalog.Import(cmd.Context(), s, file)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return opts.printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📦 created %d, updated %d, skipped %d\n", res.Created, res.Updated, res.Skipped)
			return nil
		},
	}
}
