package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportUser string
	exportOut  string
	importUser string
	importFile string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a user's entries as CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		text, err := rt.entries.Export(cmd.Context(), exportUser)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		_, err = fmt.Fprintln(w, text)
		return err
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Merge entries from a CSV file into a user's collection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := os.ReadFile(importFile)
		if err != nil {
			return err
		}

		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		n, err := rt.entries.Import(cmd.Context(), importUser, string(data))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d件のデータをインポートしました\n", n)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportUser, "user", "", "user id")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	_ = exportCmd.MarkFlagRequired("user")

	importCmd.Flags().StringVar(&importUser, "user", "", "user id")
	importCmd.Flags().StringVar(&importFile, "file", "", "CSV file to import")
	_ = importCmd.MarkFlagRequired("user")
	_ = importCmd.MarkFlagRequired("file")
}
