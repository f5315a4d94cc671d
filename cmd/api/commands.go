package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/engine"
	"github.com/nyashahama/hazard-risk-engine/internal/report"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
	"github.com/nyashahama/hazard-risk-engine/internal/store"
	"github.com/nyashahama/hazard-risk-engine/internal/taxonomy"
)

// ─── migrate ──────────────────────────────────────────────────────────────────

func migrateCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			pool, _, err := openDB(cmd.Context(), cfg, false)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()

			applied, err := db.Migrate(cmd.Context(), pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				logger.Info("migrate: schema is up to date")
				return nil
			}
			logger.Info("migrate: applied", "versions", applied)
			return nil
		},
	}
}

// ─── seed ─────────────────────────────────────────────────────────────────────

func seedCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the taxonomy and mapping catalog into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

			var (
				cat *taxonomy.Catalog
				err error
			)
			if file != "" {
				cat, err = taxonomy.LoadFile(file)
			} else {
				cat, err = taxonomy.Seed()
			}
			if err != nil {
				return fmt.Errorf("seed: load catalog: %w", err)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			pool, queries, err := openDB(cmd.Context(), cfg, true)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()

			if err := store.New(pool, queries).SeedCatalog(cmd.Context(), cat); err != nil {
				return err
			}
			logger.Info("seed: catalog loaded",
				"service_mappings", len(cat.ServiceMap),
				"mitigation_mappings", len(cat.MitigationMap),
			)
			return nil
		},
	}
	cmd.Flags().String("file", "", "catalog YAML file (default: the built-in catalog)")
	return cmd
}

// ─── recommend ────────────────────────────────────────────────────────────────

func recommendCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend <patient-id>",
		Short: "Print a patient's service recommendations as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, _ := cmd.Flags().GetBool("selected")
			rec, err := loadRecommendations(cmd, logger, args[0], selected)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
	cmd.Flags().Bool("selected", false, "keep only services selected in the patient's settings")
	return cmd
}

// ─── export ───────────────────────────────────────────────────────────────────

func exportCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <patient-id>",
		Short: "Write the selected-services report as Markdown and XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			rec, err := loadRecommendations(cmd, logger, args[0], true)
			if err != nil {
				return err
			}

			xlsx, err := report.BuildXLSX(rec)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			mdPath := filepath.Join(out, "recommendations-"+rec.PatientID+".md")
			xlsxPath := filepath.Join(out, "recommendations-"+rec.PatientID+".xlsx")
			if err := os.WriteFile(mdPath, []byte(report.RenderMarkdown(rec)), 0o644); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if err := os.WriteFile(xlsxPath, xlsx, 0o644); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			logger.Info("export: written", "markdown", mdPath, "xlsx", xlsxPath, "services", rec.TotalServices)
			return nil
		},
	}
	cmd.Flags().String("out", ".", "output directory")
	return cmd
}

// loadRecommendations runs the pipeline read-only: nothing is written to the
// database.
func loadRecommendations(cmd *cobra.Command, logger *slog.Logger, rawID string, selected bool) (scoring.Recommendations, error) {
	patientID, err := uuid.Parse(rawID)
	if err != nil {
		return scoring.Recommendations{}, fmt.Errorf("invalid patient id %q: %w", rawID, err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return scoring.Recommendations{}, err
	}
	pool, queries, err := openDB(cmd.Context(), cfg, true)
	if err != nil {
		return scoring.Recommendations{}, fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	if _, err := queries.GetPatientByID(cmd.Context(), patientID); err != nil {
		return scoring.Recommendations{}, fmt.Errorf("patient %s: %w", patientID, err)
	}

	eng := engine.New(queries, nil, logger)
	if selected {
		return eng.SelectedRecommendations(cmd.Context(), patientID)
	}
	return eng.GetRecommendations(cmd.Context(), patientID)
}
