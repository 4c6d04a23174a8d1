package render

import (
	"context"
	"fmt"
	"log/slog"

	"framelock/internal/assets"
	"framelock/internal/digest"
	"framelock/internal/logging"
	"framelock/internal/placeholder"
	"framelock/internal/renderspec"
	"framelock/internal/services"
	"framelock/internal/services/ffmpeg"
	"framelock/internal/timeline"
)

// Orchestrator turns resolved decisions into encoder inputs and drives the
// single encode invocation. Encodes are never retried: a failure surfaces
// with the encoder's diagnostic output intact.
type Orchestrator struct {
	encoder ffmpeg.Client
	synth   *placeholder.Synthesizer
	logger  *slog.Logger
}

// NewOrchestrator wires the encoder client and placeholder synthesizer.
func NewOrchestrator(encoder ffmpeg.Client, synth *placeholder.Synthesizer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Orchestrator{
		encoder: encoder,
		synth:   synth,
		logger:  logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// Materialize maps each decision to a concrete input file, synthesizing
// placeholder frames where needed, and hashes every input. Results follow
// timeline order; the hash map is keyed by shot id.
func (o *Orchestrator) Materialize(tl *timeline.Timeline, spec *renderspec.RenderSpec, decisions []assets.Decision) ([]ShotInput, map[string]string, error) {
	inputs := make([]ShotInput, 0, len(tl.Shots))
	hashes := make(map[string]string, len(tl.Shots))

	for i, shot := range tl.Shots {
		decision := decisions[i]
		path := decision.Path
		if decision.Source == assets.SourcePlaceholder {
			synthesized, err := o.synth.Materialize(shot.ID, spec.Width, spec.Height)
			if err != nil {
				return nil, nil, err
			}
			path = synthesized
		}
		sum, err := digest.SumFile(path)
		if err != nil {
			return nil, nil, services.Wrap(services.ErrAssetUnreachable, "materialize", "hash input",
				fmt.Sprintf("failed to hash input for shot %q", shot.ID), err)
		}
		hashes[shot.ID] = sum
		inputs = append(inputs, ShotInput{Path: path, DurationMS: shot.DurationMS})
	}
	return inputs, hashes, nil
}

// Encode runs the single encoder invocation for the render.
func (o *Orchestrator) Encode(ctx context.Context, spec *renderspec.RenderSpec, inputs []ShotInput, outputPath string) error {
	args := BuildArgs(spec, inputs, outputPath)
	o.logger.Debug("invoking encoder",
		logging.Int("inputs", len(inputs)),
		logging.String("output", outputPath))
	return o.encoder.Encode(ctx, args)
}
