package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgtes/maismedicos-go/internal/termo"
)

type termoOptions struct {
	input      string
	output     string
	clausulas  string
	brasaoPath string
}

func newTermoCommand(root *rootOptions) *cobra.Command {
	opts := &termoOptions{}
	cmd := &cobra.Command{
		Use:   "termo",
		Short: "Render adhesion annexes from JSON data",
	}
	cmd.PersistentFlags().StringVarP(&opts.input, "input", "i", "", "JSON file with the annex data (- for stdin)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "PDF file to write (- for stdout)")
	cmd.PersistentFlags().StringVar(&opts.clausulas, "clausulas", "", "YAML clause catalogue replacing the embedded one")
	cmd.PersistentFlags().StringVar(&opts.brasaoPath, "brasao", "", "PNG coat of arms printed on the header")
	_ = cmd.MarkPersistentFlagRequired("input")
	_ = cmd.MarkPersistentFlagRequired("output")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "anexo-i",
			Short: "Render Anexo I (termo de adesão)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				var a termo.AnexoI
				return opts.render(cmd, root, &a, func(r *termo.Renderer, w io.Writer) error { return r.AnexoI(w, a) })
			},
		},
		&cobra.Command{
			Use:   "anexo-ii",
			Short: "Render Anexo II (relação de estabelecimentos)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				var a termo.AnexoII
				return opts.render(cmd, root, &a, func(r *termo.Renderer, w io.Writer) error { return r.AnexoII(w, a) })
			},
		},
	)
	return cmd
}

// render decodes the input into dst, then writes the PDF produced by draw.
func (o *termoOptions) render(cmd *cobra.Command, root *rootOptions, dst any, draw func(*termo.Renderer, io.Writer) error) error {
	logger := root.logger(cmd)

	raw, err := o.readInput(cmd)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", o.input, err)
	}

	catalog, err := termo.NewCatalogStore(o.clausulas)
	if err != nil {
		return err
	}
	brasao, err := termo.LoadBrasao(o.brasaoPath)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := draw(termo.NewRenderer(catalog, brasao, logger), &buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if o.output == "-" {
		_, err := buf.WriteTo(cmd.OutOrStdout())
		return err
	}
	if err := os.WriteFile(o.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", o.output, err)
	}
	logger.Info("annex written", "output", o.output, "bytes", buf.Len())
	return nil
}

func (o *termoOptions) readInput(cmd *cobra.Command) ([]byte, error) {
	if o.input == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(o.input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}
