package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"patlens/internal/catalog"
	"patlens/internal/config"
	"patlens/internal/detect"
	"patlens/internal/matcher"
	"patlens/internal/parser"
	"patlens/internal/pipeline"
	"patlens/internal/storage"
	"patlens/internal/transform"
	"patlens/internal/tree"
)

var (
	rootCmd = &cobra.Command{
		Use:   "patlens",
		Short: "Design-pattern detection over parsed source trees",
	}
	configPath string
	dbPath     string
	reportPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "patlens.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the scan history database (SQLite), overrides config")

	scanCmd.Flags().StringVarP(&reportPath, "out", "o", "", "Write the report to this path (.json or .yaml)")
	transformCmd.Flags().String("pattern", "Singleton", "Pattern whose best match to rewrite")
	transformCmd.Flags().StringP("out", "o", "transformed.go", "Output path for the rewritten source")
	syncCmd.Flags().String("base", "", "Git ref to diff against for impact analysis")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(syncCmd)
}

// initDetector wires the parser, matcher, logger and pattern catalog
// according to the loaded configuration. Registration finishes here, before
// any concurrent detection starts.
func initDetector(cfg *config.Config, logger *zap.Logger) (*detect.Detector, error) {
	opts := []detect.Option{
		detect.WithLogger(logger),
		detect.WithWorkers(cfg.Project.Workers),
	}
	if len(cfg.Detection.TransparentKinds) > 0 {
		kinds := make([]tree.Kind, 0, len(cfg.Detection.TransparentKinds))
		for _, k := range cfg.Detection.TransparentKinds {
			kinds = append(kinds, tree.Kind(k))
		}
		opts = append(opts, detect.WithMatcher(matcher.New(
			matcher.WithTransparentKinds(kinds...),
			matcher.WithLogger(logger),
		)))
	}

	d := detect.NewDetector(parser.NewGoParser(), opts...)
	if err := catalog.RegisterBuiltin(d); err != nil {
		return nil, err
	}

	if cfg.Detection.CatalogPath != "" {
		custom, err := catalog.LoadFile(cfg.Detection.CatalogPath)
		if err != nil {
			return nil, err
		}
		for _, def := range custom {
			if err := d.Register(def); err != nil {
				return nil, err
			}
		}
	}

	// A global floor overrides each pattern's own threshold when configured.
	if cfg.Detection.MinConfidence > 0 {
		for _, def := range d.Definitions() {
			if def.MinConfidence < cfg.Detection.MinConfidence {
				def.MinConfidence = cfg.Detection.MinConfidence
			}
		}
	}

	return d, nil
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	var level zapcore.Level
	if err := level.Set(cfg.Logging.Level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

func setup() (*config.Config, *zap.Logger, *detect.Detector, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	d, err := initDetector(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, d, nil
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a project for design patterns and build a detection report",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, d, err := setup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer logger.Sync()

		root := cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}

		fmt.Printf("Scanning %s...\n", root)
		start := time.Now()

		ctx := context.Background()
		rep, err := d.AnalyzeProject(ctx, root)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}

		fmt.Printf("Scanned %d files in %v (%d parse failures).\n",
			rep.FilesScanned, time.Since(start), rep.ParseFailures)
		fmt.Printf("Detections: %d, refactoring candidates: %d\n",
			rep.TotalDetections, rep.RefactoringCandidates)
		for _, p := range rep.Patterns {
			fmt.Printf("  %-12s %3d matches, avg confidence %.2f\n", p.Pattern, p.Count, p.AvgConfidence)
		}

		if reportPath != "" {
			if err := rep.Save(reportPath); err != nil {
				log.Fatalf("Failed to write report: %v", err)
			}
			fmt.Printf("Report written to %s\n", reportPath)
		}

		store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()

		scanID, err := store.SaveScan(ctx, rep)
		if err != nil {
			log.Fatalf("Failed to persist scan: %v", err)
		}
		fmt.Printf("Scan #%d saved to %s\n", scanID, cfg.Storage.DBPath)
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Detect patterns in a single source file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, logger, d, err := setup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer logger.Sync()

		matches, err := d.DetectInFile(args[0])
		if err != nil {
			log.Fatalf("Detection failed: %v", err)
		}

		if len(matches) == 0 {
			fmt.Println("No patterns detected.")
			return
		}
		for _, m := range matches {
			fmt.Printf("%-12s %-24s confidence %.2f (line %d)\n",
				m.PatternName, m.NodeName, m.Confidence, m.Pos.StartLine)
		}
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform <file>",
	Short: "Rewrite the best match of a pattern using its registered template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		patternName, _ := cmd.Flags().GetString("pattern")
		outPath, _ := cmd.Flags().GetString("out")

		_, logger, d, err := setup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer logger.Sync()

		tr := transform.NewTransformer(d, logger)
		catalog.RegisterTemplates(tr)

		if err := tr.ApplyToFile(args[0], patternName, outPath); err != nil {
			log.Fatalf("Transform failed: %v", err)
		}
		fmt.Printf("Transformed output written to %s\n", outPath)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync [path]",
	Short: "Scan, persist and compare against the previous scan of the same root",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		baseRef, _ := cmd.Flags().GetString("base")

		cfg, logger, d, err := setup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer logger.Sync()

		root := cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}

		store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()

		res, err := pipeline.NewSync(d, store, logger).Run(context.Background(), root, baseRef)
		if err != nil {
			log.Fatalf("Sync failed: %v", err)
		}

		fmt.Printf("Scan #%d: %d detections across %d files.\n",
			res.ScanID, res.Report.TotalDetections, res.Report.FilesScanned)

		if res.Diff == nil {
			fmt.Println("First scan of this root, nothing to compare against.")
		} else {
			fmt.Printf("Since last scan: %d new, %d resolved.\n",
				len(res.Diff.New), len(res.Diff.Resolved))
			for _, m := range res.Diff.New {
				fmt.Printf("  + %-12s %s (%s:%d)\n", m.PatternName, m.NodeName, m.Pos.Filepath, m.Pos.StartLine)
			}
			for _, m := range res.Diff.Resolved {
				fmt.Printf("  - %-12s %s (%s)\n", m.PatternName, m.NodeName, m.Pos.Filepath)
			}
		}

		if res.Impact != nil {
			fmt.Printf("Impact of diff against %s: %d instances touched, %d adjacent.\n",
				baseRef, len(res.Impact.Touched), len(res.Impact.Adjacent))
			for _, m := range res.Impact.Touched {
				fmt.Printf("  ! %-12s %s (%s:%d)\n", m.PatternName, m.NodeName, m.Pos.Filepath, m.Pos.StartLine)
			}
		}
	},
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List the registered pattern definitions",
	Run: func(cmd *cobra.Command, args []string) {
		_, logger, d, err := setup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer logger.Sync()

		for _, def := range d.Definitions() {
			fmt.Printf("%-12s threshold %.2f  %s\n", def.Name, def.MinConfidence, def.Description)
			for _, h := range def.Heuristics {
				fmt.Printf("    %-28s weight %.2f  %s\n", h.Name, h.Weight, h.Description)
			}
		}
	},
}
