package host

import (
	"context"
	"log/slog"

	"github.com/paulmach/orb"
)

// BlendMode is a paint composition mode.
type BlendMode int

const (
	BlendSourceOver BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendOther
)

// FieldPair links a field on the referencing (child) layer to a field on the referenced (parent) layer.
type FieldPair struct {
	Referencing string
	Referenced  string
}

// Relation is a field based association between two vector layers.
type Relation struct {
	ID          string
	Name        string
	Referencing VectorLayer
	Referenced  VectorLayer
	FieldPairs  []FieldPair
}

// Canvas is the current map view.
type Canvas struct {
	Extent orb.Bound
	CRS    CRS
}

// Evaluator evaluates expressions in the scope of a layer and one of its features.
type Evaluator interface {
	Evaluate(ctx context.Context, layer VectorLayer, expr string, f *Feature) (any, error)
}

// Project is the explicit snapshot of the hosting project that export operations run against.
type Project struct {
	// FileName is the path of the project file; relative attachment paths resolve against its directory.
	FileName  string
	Layers    []Layer
	Relations []*Relation
	Canvas    Canvas
	Evaluator Evaluator
}

// Feedback receives progress updates.
type Feedback interface {
	ShowFeedback(string)
	CompleteStep()
}

// LogFeedback is a Feedback implementation that writes progress to a slog.Logger.
type LogFeedback struct {
	Logger *slog.Logger
	steps  int
}

func (fb *LogFeedback) ShowFeedback(msg string) {
	fb.logger().Info(msg)
}

func (fb *LogFeedback) CompleteStep() {
	fb.steps += 1
	fb.logger().Debug("Step complete", "steps", fb.steps)
}

// Steps returns the number of completed steps.
func (fb *LogFeedback) Steps() int {
	return fb.steps
}

func (fb *LogFeedback) logger() *slog.Logger {

	if fb.Logger == nil {
		return slog.Default()
	}

	return fb.Logger
}
