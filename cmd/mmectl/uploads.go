package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sgtes/maismedicos-go/internal/platform/cache"
	"github.com/sgtes/maismedicos-go/internal/recursos"
	"github.com/sgtes/maismedicos-go/internal/uploads"
)

func newUploadsCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "Inspect the signed PDFs stored by the backend",
	}

	var uf string
	var asJSON bool
	pendentes := &cobra.Command{
		Use:   "pendentes",
		Short: "List CNES with uploads not yet marked as signed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := root.logger(cmd)

			cfg, err := recursos.ConfigFromEnv()
			if err != nil {
				return err
			}
			client, err := recursos.New(cfg)
			if err != nil {
				return err
			}
			rec := recursos.NewCached(client, cache.NewMemoryCache(), time.Minute, logger)

			files, err := rec.ListarUploads(ctx)
			if err != nil {
				return fmt.Errorf("listar uploads: %w", err)
			}
			assinados, err := rec.Assinados(ctx)
			if err != nil {
				return fmt.Errorf("listar assinados: %w", err)
			}

			criteria := uploads.Criteria{Status: uploads.StatusNaoAssinados}
			if uf = normUF(uf); uf != "" {
				municipios, err := rec.Municipios(ctx, uf, "")
				if err != nil {
					return fmt.Errorf("municipios de %s: %w", uf, err)
				}
				ids := make([]int64, 0, len(municipios))
				for _, m := range municipios {
					ids = append(ids, int64(m.MunicipioID))
				}
				for _, ests := range rec.EstabelecimentosPorMunicipio(ctx, ids) {
					for _, e := range ests {
						criteria.EstabelecimentosUF = append(criteria.EstabelecimentosUF, e.CNES)
					}
				}
			}

			var filtered []uploads.File
			if uf != "" && len(criteria.EstabelecimentosUF) == 0 {
				logger.Warn("no establishments found for uf", "uf", uf)
			} else {
				filtered = uploads.Filter(files, assinados, criteria)
			}
			summary := uploads.Summarize(files, filtered, assinados)
			logger.Info("uploads summarized", "total", summary.Total, "assinados", summary.Assinados, "pendentes", len(filtered))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"uf":      uf,
					"total":   summary.Total,
					"pending": len(filtered),
					"cnes":    summary.CNESNaoAssinados,
				})
			}
			for _, c := range summary.CNESNaoAssinados {
				fmt.Fprintln(out, c)
			}
			return nil
		},
	}
	pendentes.Flags().StringVar(&uf, "uf", "", "restrict to establishments of this UF")
	pendentes.Flags().BoolVar(&asJSON, "json", false, "print a JSON summary")
	cmd.AddCommand(pendentes)
	return cmd
}
