package generator

import "time"

// RenderedPage describes one page produced by a build.
type RenderedPage struct {
	Source string
	Output string
	// Route is the URL path relative to the base path, "" for the home page.
	Route        string
	Title        string
	HTML         string
	Checksum     string
	LastModified time.Time
	Duration     time.Duration
}

// RenderDiagnostic records the outcome of processing one source document.
type RenderDiagnostic struct {
	Source   string
	Output   string
	Duration time.Duration
	Skipped  bool
	Draft    bool
	Err      error
}

type renderOutcome struct {
	page       RenderedPage
	diagnostic RenderDiagnostic
	hash       string
	err        error
}
