package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alexanderrusich/whisper-go/pkg/pipeline"
)

// runRecognize implements spec §6's single invocation surface:
// recognize(audio_path, beam_size, language) -> text.
func runRecognize(cmd *cobra.Command, _ []string) error {
	if activeCfg.Request.AudioPath == "" {
		return fmt.Errorf("transcribe: --audio is required")
	}

	slog.Info("loading models",
		"encoder", activeCfg.Models.EncoderPath,
		"decoder", activeCfg.Models.DecoderPath,
		"pool_size", activeCfg.Models.PoolSize,
	)

	engine, err := pipeline.NewEngine(pipeline.Config{
		EncoderModelPath: activeCfg.Models.EncoderPath,
		DecoderModelPath: activeCfg.Models.DecoderPath,
		MelFilterPath:    activeCfg.Models.MelFilterPath,
		PosEmbedPath:     activeCfg.Models.PosEmbedPath,
		VocabPath:        activeCfg.Models.VocabPath,
		PoolSize:         activeCfg.Models.PoolSize,
	})
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	defer engine.Close()

	slog.Info("transcribing",
		"audio", activeCfg.Request.AudioPath,
		"language", activeCfg.Request.Language,
		"beam_size", activeCfg.Request.BeamSize,
	)

	text, err := engine.Recognize(activeCfg.Request.AudioPath, activeCfg.Request.BeamSize, activeCfg.Request.Language)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}

	fmt.Println(text)
	return nil
}
