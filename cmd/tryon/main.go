// Command tryon runs garment swaps in batch: every model photo in one
// directory is paired with every flat-lay photo in another, and each pair
// produces one output image.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"tryon/internal/gemini"
	"tryon/internal/infra"
	"tryon/internal/prompt"
	"tryon/internal/tryon"
)

func main() {
	var (
		modelsDir   = flag.String("models", "input/models", "directory of model photos")
		flatlaysDir = flag.String("flatlays", "input/flatlays", "directory of flat-lay garment photos")
		outDir      = flag.String("out", "output", "directory for generated images")
		refineFile  = flag.String("refinements", "", "optional file of refinement instructions")
		guidance    = flag.String("guidance", "", "optional guidance image applied to every pair")
		outputSize  = flag.Int("size", 0, "longest output side in pixels (0 follows the model image)")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	geminiClient, err := gemini.NewClient(ctx, gemini.Options{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init gemini client")
	}
	client, err := tryon.NewClient(geminiClient, tryon.Config{
		MaxAttempts:             cfg.MaxAttempts,
		RetryBaseDelay:          cfg.RetryBaseDelay,
		AttemptTimeout:          cfg.AttemptTimeout,
		MaxInputDimension:       cfg.MaxInputDimension,
		MaxInputDimensionGuided: cfg.MaxInputDimensionGuided,
		OutputFormat:            cfg.OutputFormat,
		OutputQuality:           cfg.OutputQuality,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init generator")
	}

	refinements := ""
	if *refineFile != "" {
		raw, err := os.ReadFile(*refineFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *refineFile).Msg("read refinements")
		}
		refinements = prompt.CleanRefinements(string(raw))
	}

	models, err := listImages(*modelsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("list model photos")
	}
	flatlays, err := listImages(*flatlaysDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("list flat-lay photos")
	}
	if len(models) == 0 || len(flatlays) == 0 {
		logger.Fatal().Int("models", len(models)).Int("flatlays", len(flatlays)).Msg("nothing to pair")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create output directory")
	}

	promptText := prompt.BuildSwapPrompt(prompt.SwapSpec{
		PreserveFace:       true,
		PreserveLighting:   true,
		PreserveBackground: true,
		Refinements:        refinements,
		HasGuidanceImage:   *guidance != "",
		MaxRefinementLen:   cfg.RefinementMaxLen,
	})
	size := tryon.OutputSize{MatchInput: *outputSize <= 0, Pixels: *outputSize}

	ext := "png"
	if cfg.OutputFormat == "jpeg" {
		ext = "jpg"
	}

	failures := 0
	for _, model := range models {
		for _, flatlay := range flatlays {
			name := fmt.Sprintf("%s_%s_swap.%s", stem(model), stem(flatlay), ext)
			outputPath := filepath.Join(*outDir, name)

			outcome := client.SwapGarment(ctx, tryon.SwapRequest{
				ModelImagePath:    model,
				FlatlayImagePath:  flatlay,
				GuidanceImagePath: *guidance,
				Prompt:            promptText,
				OutputPath:        outputPath,
				OutputSize:        size,
			})
			if outcome.Success() {
				logger.Info().Str("output", outputPath).
					Int("width", outcome.Width).Int("height", outcome.Height).
					Msg("generated")
				continue
			}
			failures++
			_, message := tryon.UserMessage(outcome.Kind, cfg.DefaultLocale)
			logger.Error().Str("model", model).Str("flatlay", flatlay).
				Str("category", string(outcome.Category())).
				Str("detail", outcome.Detail).
				Msg(message)
		}
	}

	logger.Info().Int("pairs", len(models)*len(flatlays)).Int("failed", failures).Msg("batch done")
	if failures > 0 {
		os.Exit(1)
	}
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".webp", ".gif", ".bmp":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
