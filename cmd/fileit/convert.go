package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kiratsolutions/fileit"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a PDF or Word document into page images in the bucket",
	Long: `Render every page of a PDF or DOCX file as a JPEG and store it as
<prefix><page>.jpg. The prefix defaults to "<book>/Images/".

Examples:
  fileit convert chapter1.pdf --book Physics
  fileit convert notes.docx --book Physics --prefix Physics/Notes/`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var (
	convertBook   string
	convertPrefix string
)

func init() {
	convertCmd.Flags().StringVarP(&convertBook, "book", "b", "", "book name (required)")
	convertCmd.Flags().StringVar(&convertPrefix, "prefix", "", "object prefix for page images")
	_ = convertCmd.MarkFlagRequired("book")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	_, service, c, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer c.run()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer func() { _ = f.Close() }()

	slog.Info("converting document", "file", args[0], "book", convertBook)

	res, err := service.UploadContent(cmd.Context(), fileit.Upload{
		Book:        convertBook,
		ContentType: fileit.ContentTypeByExtension(args[0]),
		Prefix:      convertPrefix,
		Body:        f,
	})
	if err != nil {
		return err
	}

	for _, p := range res.Pages {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d page(s) stored.\n", len(res.Pages))
	return nil
}
