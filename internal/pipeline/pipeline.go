// Package pipeline orchestrates the train, evaluate, and predict flows.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/tagforge/tag-forge/internal/artifact"
	"github.com/tagforge/tag-forge/internal/classifier"
	"github.com/tagforge/tag-forge/internal/config"
	"github.com/tagforge/tag-forge/internal/dataset"
	"github.com/tagforge/tag-forge/internal/evaluation"
	"github.com/tagforge/tag-forge/internal/label"
	"github.com/tagforge/tag-forge/internal/linear"
	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
	"github.com/tagforge/tag-forge/internal/pkg/hash"
	"github.com/tagforge/tag-forge/internal/pkg/logger"
)

// Pipeline wires the stages of a run together.
type Pipeline struct {
	cfg *config.Config
	log *logger.Logger
}

// New creates a pipeline over the given configuration.
func New(cfg *config.Config, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Default()
	}
	return &Pipeline{cfg: cfg, log: log}
}

// TrainResult summarizes a full train-and-evaluate pass.
type TrainResult struct {
	RunID              string             `json:"run_id"`
	TrainExamples      int                `json:"train_examples"`
	ValidationExamples int                `json:"validation_examples"`
	Features           int                `json:"features"`
	Labels             int                `json:"labels"`
	Report             *evaluation.Report `json:"report"`
	ReportPath         string             `json:"report_path"`
	ModelPath          string             `json:"model_path"`
	VocabularyPath     string             `json:"vocabulary_path"`
	Duration           time.Duration      `json:"duration"`
}

// Train runs the whole pass: load both splits, fix the vocabulary,
// fit the ensemble on the training split, score the validation split,
// and persist the report plus the model artifacts. Any stage error
// aborts the run before anything later is written.
func (p *Pipeline) Train(ctx context.Context) (*TrainResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := p.log.WithRun(runID)

	if p.cfg.Data.TrainFile == "" {
		return nil, apperrors.InvalidConfigError("data.train_file is required")
	}
	if p.cfg.Data.ValidationFile == "" {
		return nil, apperrors.InvalidConfigError("data.validation_file is required")
	}

	trainSet, err := dataset.Load(p.cfg.Data.TrainFile)
	if err != nil {
		return nil, fmt.Errorf("loading training split: %w", err)
	}
	validationSet, err := dataset.Load(p.cfg.Data.ValidationFile)
	if err != nil {
		return nil, fmt.Errorf("loading validation split: %w", err)
	}
	if trainSet.NumFeatures() != validationSet.NumFeatures() {
		return nil, apperrors.DimensionMismatchError(
			fmt.Sprintf("training split has %d features, validation split has %d",
				trainSet.NumFeatures(), validationSet.NumFeatures()))
	}
	log.Info("Datasets loaded",
		"train_examples", trainSet.NumExamples(),
		"validation_examples", validationSet.NumExamples(),
		"features", trainSet.NumFeatures(),
	)

	vocab, err := p.buildVocabulary(trainSet, validationSet)
	if err != nil {
		return nil, err
	}
	log.Info("Vocabulary fixed", "labels", vocab.Len())

	trainTargets, err := label.Binarize(vocab, trainSet.LabelSets)
	if err != nil {
		return nil, fmt.Errorf("binarizing training labels: %w", err)
	}
	validationTargets, err := label.Binarize(vocab, validationSet.LabelSets)
	if err != nil {
		return nil, fmt.Errorf("binarizing validation labels: %w", err)
	}

	ensemble, err := classifier.Train(ctx, trainSet.Features, trainTargets, classifier.TrainOptions{
		Linear: linear.Options{
			Penalty:       linear.Penalty(p.cfg.Train.Penalty),
			C:             p.cfg.Train.C,
			MaxIterations: p.cfg.Train.MaxIterations,
			Tolerance:     p.cfg.Train.Tolerance,
		},
		Parallelism: p.cfg.Train.Parallelism,
		Labels:      vocab.Labels(),
	}, log.WithStage("train"))
	if err != nil {
		return nil, fmt.Errorf("training ensemble: %w", err)
	}
	log.Info("Ensemble trained", "labels", ensemble.NumLabels(), "penalty", p.cfg.Train.Penalty, "c", p.cfg.Train.C)

	report, err := p.score(ensemble, validationSet.Features, validationTargets)
	if err != nil {
		return nil, err
	}

	if err := report.Write(p.cfg.ReportPath()); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	digest, err := hash.FileSHA256(p.cfg.Data.TrainFile)
	if err != nil {
		return nil, apperrors.ArtifactError("fingerprinting training split", err)
	}
	meta := artifact.NewMetadata(runID, digest)

	if err := artifact.SaveModel(p.cfg.ModelPath(), &artifact.Model{
		Metadata: meta,
		Penalty:  p.cfg.Train.Penalty,
		C:        p.cfg.Train.C,
		Ensemble: ensemble,
	}); err != nil {
		return nil, fmt.Errorf("saving model artifact: %w", err)
	}
	if err := artifact.SaveVocabulary(p.cfg.VocabularyPath(), &artifact.Vocabulary{
		Metadata: meta,
		Labels:   vocab.Labels(),
	}); err != nil {
		return nil, fmt.Errorf("saving vocabulary artifact: %w", err)
	}

	result := &TrainResult{
		RunID:              runID,
		TrainExamples:      trainSet.NumExamples(),
		ValidationExamples: validationSet.NumExamples(),
		Features:           trainSet.NumFeatures(),
		Labels:             vocab.Len(),
		Report:             report,
		ReportPath:         p.cfg.ReportPath(),
		ModelPath:          p.cfg.ModelPath(),
		VocabularyPath:     p.cfg.VocabularyPath(),
		Duration:           time.Since(start),
	}

	log.Info("Training complete",
		"train_examples", result.TrainExamples,
		"validation_examples", result.ValidationExamples,
		"labels", result.Labels,
		"report", result.ReportPath,
		"duration", result.Duration,
	)

	return result, nil
}

// EvaluateResult summarizes scoring a stored model against a labeled
// split.
type EvaluateResult struct {
	RunID      string             `json:"run_id"`
	Examples   int                `json:"examples"`
	Labels     int                `json:"labels"`
	Report     *evaluation.Report `json:"report"`
	ReportPath string             `json:"report_path"`
	Duration   time.Duration      `json:"duration"`
}

// Evaluate loads the persisted model and vocabulary and scores them
// against the configured validation split.
func (p *Pipeline) Evaluate(ctx context.Context) (*EvaluateResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := p.log.WithRun(runID)

	if p.cfg.Data.ValidationFile == "" {
		return nil, apperrors.InvalidConfigError("data.validation_file is required")
	}

	model, vocab, err := p.loadArtifacts()
	if err != nil {
		return nil, err
	}

	validationSet, err := dataset.Load(p.cfg.Data.ValidationFile)
	if err != nil {
		return nil, fmt.Errorf("loading validation split: %w", err)
	}

	targets, err := label.Binarize(vocab, validationSet.LabelSets)
	if err != nil {
		return nil, fmt.Errorf("binarizing validation labels: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report, err := p.score(model.Ensemble, validationSet.Features, targets)
	if err != nil {
		return nil, err
	}

	if err := report.Write(p.cfg.ReportPath()); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	result := &EvaluateResult{
		RunID:      runID,
		Examples:   validationSet.NumExamples(),
		Labels:     vocab.Len(),
		Report:     report,
		ReportPath: p.cfg.ReportPath(),
		Duration:   time.Since(start),
	}

	log.Info("Evaluation complete",
		"examples", result.Examples,
		"labels", result.Labels,
		"report", result.ReportPath,
		"duration", result.Duration,
	)

	return result, nil
}

// PredictResult summarizes applying a stored model to an unlabeled
// split.
type PredictResult struct {
	RunID           string        `json:"run_id"`
	Examples        int           `json:"examples"`
	PredictionsPath string        `json:"predictions_path"`
	Duration        time.Duration `json:"duration"`
}

// Predict loads the persisted model and vocabulary, predicts label
// sets for every row of the input file, and writes them as JSONL.
func (p *Pipeline) Predict(ctx context.Context, inputPath string) (*PredictResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := p.log.WithRun(runID)

	if inputPath == "" {
		return nil, apperrors.InvalidConfigError("an input file is required")
	}

	model, vocab, err := p.loadArtifacts()
	if err != nil {
		return nil, err
	}

	inputSet, err := dataset.Load(inputPath)
	if err != nil {
		return nil, fmt.Errorf("loading input: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indicators, err := model.Ensemble.PredictLabels(inputSet.Features)
	if err != nil {
		return nil, fmt.Errorf("predicting labels: %w", err)
	}

	labelSets, err := label.Inverse(vocab, indicators)
	if err != nil {
		return nil, fmt.Errorf("decoding predictions: %w", err)
	}

	if err := dataset.WriteLabelSets(p.cfg.PredictionsPath(), labelSets); err != nil {
		return nil, fmt.Errorf("writing predictions: %w", err)
	}

	result := &PredictResult{
		RunID:           runID,
		Examples:        inputSet.NumExamples(),
		PredictionsPath: p.cfg.PredictionsPath(),
		Duration:        time.Since(start),
	}

	log.Info("Prediction complete",
		"examples", result.Examples,
		"predictions", result.PredictionsPath,
		"duration", result.Duration,
	)

	return result, nil
}

// buildVocabulary fixes the label vocabulary for the run: an explicit
// vocabulary file wins, otherwise the distinct labels of the full
// corpus (both splits) are collected.
func (p *Pipeline) buildVocabulary(trainSet, validationSet *dataset.Dataset) (*label.Vocabulary, error) {
	if p.cfg.Data.VocabularyFile != "" {
		labels, err := dataset.LoadVocabulary(p.cfg.Data.VocabularyFile)
		if err != nil {
			return nil, fmt.Errorf("loading vocabulary: %w", err)
		}
		return label.FromLabels(labels), nil
	}

	corpus := make([][]string, 0, len(trainSet.LabelSets)+len(validationSet.LabelSets))
	corpus = append(corpus, trainSet.LabelSets...)
	corpus = append(corpus, validationSet.LabelSets...)
	return label.NewVocabulary(corpus), nil
}

// score predicts both indicators and margins for the features and
// builds the fixed-order report against the truth targets.
func (p *Pipeline) score(ensemble *classifier.Ensemble, features mat.Matrix, targets *mat.Dense) (*evaluation.Report, error) {
	predicted, err := ensemble.PredictLabels(features)
	if err != nil {
		return nil, fmt.Errorf("predicting validation labels: %w", err)
	}
	scores, err := ensemble.PredictScores(features)
	if err != nil {
		return nil, fmt.Errorf("scoring validation rows: %w", err)
	}

	report, err := evaluation.Evaluate(targets, predicted, scores)
	if err != nil {
		return nil, fmt.Errorf("evaluating predictions: %w", err)
	}
	return report, nil
}

// loadArtifacts reads the model and vocabulary artifacts and checks
// they belong together.
func (p *Pipeline) loadArtifacts() (*artifact.Model, *label.Vocabulary, error) {
	model, err := artifact.LoadModel(p.cfg.ModelPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading model artifact: %w", err)
	}
	vocabArtifact, err := artifact.LoadVocabulary(p.cfg.VocabularyPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading vocabulary artifact: %w", err)
	}

	if model.Ensemble.NumLabels() != len(vocabArtifact.Labels) {
		return nil, nil, apperrors.ArtifactError(
			fmt.Sprintf("model has %d label columns but vocabulary has %d labels",
				model.Ensemble.NumLabels(), len(vocabArtifact.Labels)), nil)
	}
	if model.Metadata.RunID != vocabArtifact.Metadata.RunID {
		p.log.Warn("Model and vocabulary artifacts come from different runs",
			"model_run", model.Metadata.RunID,
			"vocabulary_run", vocabArtifact.Metadata.RunID,
		)
	}

	return model, label.FromLabels(vocabArtifact.Labels), nil
}
