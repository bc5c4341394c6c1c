package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nekoallergy22/audio-app-2025/internal/api"
	"github.com/nekoallergy22/audio-app-2025/internal/config"
	"github.com/nekoallergy22/audio-app-2025/internal/export"
	"github.com/nekoallergy22/audio-app-2025/internal/logging"
	"github.com/nekoallergy22/audio-app-2025/internal/session"
	"github.com/nekoallergy22/audio-app-2025/internal/tts"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:          "voiceforge",
	Short:        "voiceforge turns text into per-sentence speech audio",
	Long:         "voiceforge segments text into sentences, synthesizes audio for each one through a speech backend, and serves an editing API over HTTP.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("voiceforge " + version)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger := logging.New(cfg.LogLevel, cfg.LogFormat)
		logger.Info("starting voiceforge", "version", version)

		if cfg.AuthDisabled() {
			logger.Warn("HTTP bearer authentication is disabled (BEARER_TOKEN is empty)")
		}

		logger.Info("configuration loaded",
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat,
			"http_port", cfg.HTTPPort,
			"engine", cfg.Engine,
			"delimiter", cfg.Delimiter,
			"max_text_length", cfg.MaxTextLength,
			"languages", cfg.Languages,
		)

		engine, err := buildEngine(cfg, logger)
		if err != nil {
			return err
		}
		logger.Info("speech engine ready", "engine", engine.Name())

		sessions := session.NewManager(cfg, engine, logger)
		server := api.New(cfg, logger, sessions)

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		go func() {
			if err := server.Start(); err != nil {
				logger.Error("HTTP server error", "error", err)
				cancel()
			}
		}()

		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown HTTP server", "error", err)
		}
		sessions.Shutdown()

		logger.Info("shutdown complete")
		return nil
	},
}

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Synthesize a text file into audio and export the results",
	Long: `synth reads a text file, splits it into sentence segments, synthesizes
audio for each segment, and writes the exports (audio archive, JSON
document, plain text) to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		outDir, _ := cmd.Flags().GetString("out")
		language, _ := cmd.Flags().GetString("language")
		voice, _ := cmd.Flags().GetString("voice")
		rate, _ := cmd.Flags().GetFloat64("rate")
		pitch, _ := cmd.Flags().GetFloat64("pitch")
		prefix, _ := cmd.Flags().GetString("prefix")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := logging.New(cfg.LogLevel, cfg.LogFormat)

		raw, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		engine, err := buildEngine(cfg, logger)
		if err != nil {
			return err
		}

		sessions := session.NewManager(cfg, engine, logger)
		defer sessions.Shutdown()

		sess, err := sessions.Create(session.VoiceSettings{
			Language:     language,
			VoiceName:    voice,
			SpeakingRate: rate,
			Pitch:        pitch,
		})
		if err != nil {
			return err
		}
		if err := sess.SetText(string(raw)); err != nil {
			return err
		}
		logger.Info("text segmented", "segments", len(sess.Segments()))

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		failures, err := sess.SynthesizeAll(ctx)
		if err != nil {
			return fmt.Errorf("synthesize: %w", err)
		}
		for _, f := range failures {
			logger.Warn("segment failed", "segment_id", f.SegmentID, "error", f.Err)
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := writeExports(outDir, sess, prefix); err != nil {
			return err
		}

		logger.Info("export complete",
			"out", outDir,
			"segments", len(sess.Segments()),
			"failures", len(failures),
		)
		if len(failures) > 0 {
			return fmt.Errorf("%d segment(s) failed to synthesize", len(failures))
		}
		return nil
	},
}

// buildEngine constructs the configured speech engine.
func buildEngine(cfg *config.Config, logger *slog.Logger) (tts.Engine, error) {
	registry := tts.NewRegistry()

	if cfg.GoogleAPIKey != "" {
		google, err := tts.NewGoogleEngine(tts.GoogleConfig{
			APIKey:   cfg.GoogleAPIKey,
			Endpoint: cfg.GoogleEndpoint,
			Timeout:  cfg.SynthesisTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("google engine: %w", err)
		}
		if err := registry.Register(google); err != nil {
			return nil, err
		}
	}

	if cfg.OpenAIAPIKey != "" {
		openai, err := tts.NewOpenAIEngine(tts.OpenAIConfig{APIKey: cfg.OpenAIAPIKey}, logger)
		if err != nil {
			return nil, fmt.Errorf("openai engine: %w", err)
		}
		if err := registry.Register(openai); err != nil {
			return nil, err
		}
	}

	if err := registry.SetDefault(cfg.Engine); err != nil {
		return nil, fmt.Errorf("engine %q is not configured (missing API key?): %w", cfg.Engine, err)
	}
	engine, err := registry.Default()
	if err != nil {
		return nil, err
	}
	return engine, nil
}

func writeExports(outDir string, sess *session.Session, prefix string) error {
	segments := sess.Segments()

	text := filepath.Join(outDir, "voiceforge_text.txt")
	if err := os.WriteFile(text, []byte(export.Text(segments, sess.Delimiter())), 0o644); err != nil {
		return fmt.Errorf("write text export: %w", err)
	}

	doc := export.BuildDocument(sess.Settings(), segments, time.Now())
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "voiceforge_data.json"), raw, 0o644); err != nil {
		return fmt.Errorf("write json export: %w", err)
	}

	f, err := os.Create(filepath.Join(outDir, "voiceforge_audio.zip"))
	if err != nil {
		return fmt.Errorf("create audio archive: %w", err)
	}
	if err := export.Zip(f, segments, sess.Audio, export.ZipOptions{Prefix: prefix}); err != nil {
		f.Close()
		return fmt.Errorf("write audio archive: %w", err)
	}
	return f.Close()
}

func main() {
	synthCmd.Flags().StringP("input", "i", "", "input text file")
	synthCmd.Flags().StringP("out", "o", "out", "output directory")
	synthCmd.Flags().String("language", "", "language code (defaults to DEFAULT_LANGUAGE)")
	synthCmd.Flags().String("voice", "", "voice name (defaults to DEFAULT_VOICE)")
	synthCmd.Flags().Float64("rate", 0, "speaking rate (defaults to DEFAULT_SPEAKING_RATE)")
	synthCmd.Flags().Float64("pitch", 0, "pitch adjustment in semitones")
	synthCmd.Flags().String("prefix", "", "audio file name prefix inside the archive")
	synthCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(versionCmd, serveCmd, synthCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
