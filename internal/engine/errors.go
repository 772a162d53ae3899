// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"errors"

	"github.com/WardLT/pif-dft/internal/classify"
)

var (
	// ErrUnrecognizedFormat means no supported code produced the inputs.
	ErrUnrecognizedFormat = classify.ErrUnrecognizedFormat

	// ErrAmbiguousFormat means the inputs carry markers of several codes.
	ErrAmbiguousFormat = classify.ErrAmbiguousFormat

	// ErrIncompleteExtraction means no extractor produced a chemical
	// formula, so the record would have no identity.
	ErrIncompleteExtraction = errors.New("incomplete extraction")

	// ErrNoAnnotator means quality annotation was requested from an engine
	// built without an annotator.
	ErrNoAnnotator = errors.New("no quality annotator configured")
)
