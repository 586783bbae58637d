package models

import (
	"errors"
	"fmt"
)

// Tone is the coarse register of a message
type Tone string

const (
	ToneFriendly          Tone = "friendly"
	ToneNeutral           Tone = "neutral"
	ToneCold              Tone = "cold"
	TonePassiveAggressive Tone = "passive_aggressive"
	ToneAggressive        Tone = "aggressive"
)

// Formality of a message
type Formality string

const (
	FormalityInformal Formality = "informal"
	FormalityNeutral  Formality = "neutral"
	FormalityFormal   Formality = "formal"
)

// Clarity of a message
type Clarity string

const (
	ClarityClear      Clarity = "clear"
	ClarityOverloaded Clarity = "overloaded"
	ClarityAmbiguous  Clarity = "ambiguous"
)

// IssueTag is one entry of the fixed issue vocabulary
type IssueTag string

const (
	IssueCaps             IssueTag = "caps"
	IssueUltimatum        IssueTag = "ultimatum"
	IssueBlame            IssueTag = "blame"
	IssueSarcasm          IssueTag = "sarcasm"
	IssueExcessiveJargon  IssueTag = "excessive_jargon"
	IssueNegativeJudgment IssueTag = "negative_judgment"
	IssueTooDirect        IssueTag = "too_direct"
	IssueVagueDeadline    IssueTag = "vague_deadline"
)

var (
	Tones       = []Tone{ToneFriendly, ToneNeutral, ToneCold, TonePassiveAggressive, ToneAggressive}
	Formalities = []Formality{FormalityInformal, FormalityNeutral, FormalityFormal}
	Clarities   = []Clarity{ClarityClear, ClarityOverloaded, ClarityAmbiguous}
	IssueTags   = []IssueTag{
		IssueCaps, IssueUltimatum, IssueBlame, IssueSarcasm,
		IssueExcessiveJargon, IssueNegativeJudgment, IssueTooDirect, IssueVagueDeadline,
	}
)

func (t Tone) Valid() bool      { return contains(Tones, t) }
func (f Formality) Valid() bool { return contains(Formalities, f) }
func (c Clarity) Valid() bool   { return contains(Clarities, c) }
func (i IssueTag) Valid() bool  { return contains(IssueTags, i) }

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// AnalysisRequest is the body of POST /api/analyze
type AnalysisRequest struct {
	Text string `json:"text"`
}

// Rewrites holds the four rephrasings of the analysed message
type Rewrites struct {
	Softer     string `json:"softer"`
	Shorter    string `json:"shorter"`
	Friendlier string `json:"friendlier"`
	MoreFormal string `json:"more_formal"`
}

// AnalysisResult is the model's verdict on a message
type AnalysisResult struct {
	Tone         Tone      `json:"tone"`
	Formality    Formality `json:"formality"`
	Clarity      Clarity   `json:"clarity"`
	Issues       []string  `json:"issues"`
	Explanations []string  `json:"explanations"`
	Suggestions  []string  `json:"suggestions"`
	Rewrites     Rewrites  `json:"rewrites"`
}

// ErrorResponse is the JSON body of every non-2xx API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrInvalidResult is wrapped by Validate for every schema violation.
var ErrInvalidResult = errors.New("invalid analysis result")

// Validate checks the enumerations, the presence of the three lists and the
// four rewrites. A list decoded from a missing key or JSON null is nil and
// fails; an empty array passes. Issue tags are not restricted to the
// vocabulary since renderers fall back to the raw tag.
func (r *AnalysisResult) Validate() error {
	if !r.Tone.Valid() {
		return fmt.Errorf("%w: tone %q", ErrInvalidResult, r.Tone)
	}
	if !r.Formality.Valid() {
		return fmt.Errorf("%w: formality %q", ErrInvalidResult, r.Formality)
	}
	if !r.Clarity.Valid() {
		return fmt.Errorf("%w: clarity %q", ErrInvalidResult, r.Clarity)
	}

	for name, list := range map[string][]string{
		"issues":       r.Issues,
		"explanations": r.Explanations,
		"suggestions":  r.Suggestions,
	} {
		if list == nil {
			return fmt.Errorf("%w: missing %s", ErrInvalidResult, name)
		}
	}

	for name, text := range map[string]string{
		"softer":      r.Rewrites.Softer,
		"shorter":     r.Rewrites.Shorter,
		"friendlier":  r.Rewrites.Friendlier,
		"more_formal": r.Rewrites.MoreFormal,
	} {
		if text == "" {
			return fmt.Errorf("%w: missing rewrite %q", ErrInvalidResult, name)
		}
	}

	return nil
}
