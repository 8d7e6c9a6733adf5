// Package service exposes the terminology engine over NATS request/reply.
// It is a thin adapter: every operation delegates to the store or the ECL
// evaluator and serializes the result as JSON.
package service

import (
	"encoding/json"

	"github.com/c360/termgraph/snomed"
	"github.com/c360/termgraph/store"
)

// Operation names, appended to the configured subject prefix.
const (
	OpGetConcept     = "get_concept"
	OpGetParents     = "get_parents"
	OpGetChildren    = "get_children"
	OpIsDescendantOf = "is_descendant_of"
	OpGetDescendants = "get_descendants"
	OpGetAncestors   = "get_ancestors"
	OpSearch         = "search"
	OpExecuteECL     = "execute_ecl"
	OpMatchesECL     = "matches_ecl"
	OpStats          = "stats"
)

// Operations lists every subject the service answers.
var Operations = []string{
	OpGetConcept, OpGetParents, OpGetChildren, OpIsDescendantOf,
	OpGetDescendants, OpGetAncestors, OpSearch, OpExecuteECL,
	OpMatchesECL, OpStats,
}

// ErrorBody is the structured error carried in a failed response.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Response is the envelope for every reply: exactly one of Data or Error
// is set.
type Response struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ErrorBody      `json:"error,omitempty"`
}

// GetConceptRequest asks for one concept.
type GetConceptRequest struct {
	ID                  snomed.SctID `json:"id"`
	IncludeDescriptions bool         `json:"include_descriptions"`
}

// ConceptView is a concept with its display form.
type ConceptView struct {
	snomed.Concept
	FSN string `json:"fsn,omitempty"`
}

// GetConceptResponse returns the concept and optionally its descriptions.
type GetConceptResponse struct {
	Concept      ConceptView          `json:"concept"`
	Descriptions []snomed.Description `json:"descriptions,omitempty"`
}

// IDRequest addresses one concept.
type IDRequest struct {
	ID snomed.SctID `json:"id"`
}

// IDListResponse returns a list of concept ids.
type IDListResponse struct {
	IDs []snomed.SctID `json:"ids"`
}

// IsDescendantOfRequest asks a subsumption question.
type IsDescendantOfRequest struct {
	ID         snomed.SctID `json:"id"`
	AncestorID snomed.SctID `json:"ancestor_id"`
}

// IsDescendantOfResponse answers a subsumption question.
type IsDescendantOfResponse struct {
	IsDescendant bool `json:"is_descendant"`
}

// HierarchyRequest asks for descendants or ancestors.
type HierarchyRequest struct {
	ID          snomed.SctID `json:"id"`
	Limit       int          `json:"limit"`
	IncludeSelf bool         `json:"include_self"`
}

// HierarchyResponse returns a possibly truncated id list.
type HierarchyResponse struct {
	IDs        []snomed.SctID `json:"ids"`
	TotalCount int            `json:"total_count"`
	Truncated  bool           `json:"truncated"`
}

// SearchRequest is a substring term search.
type SearchRequest struct {
	Query      string `json:"query"`
	Limit      int    `json:"limit"`
	ActiveOnly bool   `json:"active_only"`
}

// SearchResponse returns matches in concept insertion order.
type SearchResponse struct {
	Matches []store.SearchMatch `json:"matches"`
}

// ExecuteECLRequest evaluates an ECL expression given as the JSON AST form
// produced by the external grammar parser.
type ExecuteECLRequest struct {
	Expression     json.RawMessage `json:"expression"`
	Limit          int             `json:"limit"`
	IncludeDetails bool            `json:"include_details"`
}

// ConceptDetail names one result concept.
type ConceptDetail struct {
	ID  snomed.SctID `json:"id"`
	FSN string       `json:"fsn,omitempty"`
}

// ExecuteECLResponse returns the evaluated set.
type ExecuteECLResponse struct {
	IDs             []snomed.SctID  `json:"ids"`
	TotalCount      int             `json:"total_count"`
	Truncated       bool            `json:"truncated"`
	ExecutionTimeMs int64           `json:"execution_time_ms"`
	Details         []ConceptDetail `json:"details,omitempty"`
}

// MatchesECLRequest asks whether one concept satisfies an expression.
type MatchesECLRequest struct {
	ID         snomed.SctID    `json:"id"`
	Expression json.RawMessage `json:"expression"`
}

// MatchesECLResponse answers a membership question.
type MatchesECLResponse struct {
	Matches bool `json:"matches"`
}

// StatsResponse reports store contents and load statistics.
type StatsResponse struct {
	Serving           bool            `json:"serving"`
	ConceptCount      int             `json:"concept_count"`
	DescriptionCount  int             `json:"description_count"`
	RelationshipCount int             `json:"relationship_count"`
	Load              store.LoadStats `json:"load"`
}
