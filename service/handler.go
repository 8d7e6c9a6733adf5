package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/c360/termgraph/ecl"
	"github.com/c360/termgraph/errors"
	"github.com/c360/termgraph/pkg/cache"
	"github.com/c360/termgraph/snomed"
	"github.com/c360/termgraph/store"
)

// Handler answers query operations against a serving store. It is
// transport-agnostic: the NATS service and tests both call Dispatch.
type Handler struct {
	store        *store.Store
	evaluator    *ecl.Evaluator
	eclCache     *cache.LRU[ExecuteECLResponse]
	defaultLimit int
	logger       *slog.Logger
}

// HandlerDeps holds runtime dependencies for a Handler.
type HandlerDeps struct {
	Store        *store.Store
	Evaluator    *ecl.Evaluator
	CacheSize    int
	DefaultLimit int
	Logger       *slog.Logger
}

// NewHandler creates a handler over a serving store.
func NewHandler(deps HandlerDeps) (*Handler, error) {
	if deps.Store == nil || !deps.Store.IsServing() {
		return nil, errors.WrapQuery(errors.ErrStoreNotServing,
			"Handler", "NewHandler", "store check")
	}
	if deps.Evaluator == nil {
		evaluator, err := ecl.NewEvaluator(ecl.Deps{Store: deps.Store, Logger: deps.Logger})
		if err != nil {
			return nil, err
		}
		deps.Evaluator = evaluator
	}
	cacheSize := deps.CacheSize
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	eclCache, err := cache.NewLRU[ExecuteECLResponse](cacheSize)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "Handler", "NewHandler", "cache setup")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defaultLimit := deps.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 1000
	}
	return &Handler{
		store:        deps.Store,
		evaluator:    deps.Evaluator,
		eclCache:     eclCache,
		defaultLimit: defaultLimit,
		logger:       logger,
	}, nil
}

// Dispatch routes one operation. The returned bytes are always a Response
// envelope; errors are folded into it so transports never need their own
// error encoding.
func (h *Handler) Dispatch(ctx context.Context, op string, payload []byte) []byte {
	data, err := h.handle(ctx, op, payload)
	if err != nil {
		return marshalResponse(Response{Error: toErrorBody(err)})
	}
	return marshalResponse(Response{Data: data})
}

func marshalResponse(resp Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		// A response built here always marshals; this covers corruption.
		return []byte(`{"error":{"kind":"query","message":"response encoding failed"}}`)
	}
	return data
}

func toErrorBody(err error) *ErrorBody {
	kind, ok := errors.KindOf(err)
	kindName := "query"
	if ok {
		kindName = kind.String()
	}
	return &ErrorBody{Kind: kindName, Message: err.Error()}
}

func (h *Handler) handle(ctx context.Context, op string, payload []byte) (json.RawMessage, error) {
	switch op {
	case OpGetConcept:
		return h.getConcept(payload)
	case OpGetParents:
		return h.getParents(payload)
	case OpGetChildren:
		return h.getChildren(payload)
	case OpIsDescendantOf:
		return h.isDescendantOf(payload)
	case OpGetDescendants:
		return h.hierarchy(payload, false)
	case OpGetAncestors:
		return h.hierarchy(payload, true)
	case OpSearch:
		return h.search(payload)
	case OpExecuteECL:
		return h.executeECL(ctx, payload)
	case OpMatchesECL:
		return h.matchesECL(ctx, payload)
	case OpStats:
		return h.stats()
	default:
		return nil, errors.WrapQuery(
			fmt.Errorf("unknown operation %q", op),
			"Handler", "handle", "dispatch")
	}
}

func decodeRequest[T any](payload []byte) (T, error) {
	var req T
	if len(payload) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, errors.WrapQuery(err, "Handler", "decodeRequest", "request decoding")
	}
	return req, nil
}

func encode(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapQuery(err, "Handler", "encode", "response encoding")
	}
	return data, nil
}

func (h *Handler) getConcept(payload []byte) (json.RawMessage, error) {
	req, err := decodeRequest[GetConceptRequest](payload)
	if err != nil {
		return nil, err
	}
	concept, ok := h.store.GetConcept(req.ID)
	if !ok {
		return nil, errors.WrapQuery(
			fmt.Errorf("%w: %d", errors.ErrUnknownConcept, req.ID),
			"Handler", "getConcept", "concept lookup")
	}

	view := ConceptView{Concept: concept}
	if fsn, found := h.store.GetFSN(req.ID); found {
		view.FSN = fsn.Term
	}
	resp := GetConceptResponse{Concept: view}
	if req.IncludeDescriptions {
		resp.Descriptions = h.store.GetDescriptions(req.ID)
	}
	return encode(resp)
}

func (h *Handler) getParents(payload []byte) (json.RawMessage, error) {
	req, err := decodeRequest[IDRequest](payload)
	if err != nil {
		return nil, err
	}
	return encode(IDListResponse{IDs: h.store.GetParents(req.ID)})
}

func (h *Handler) getChildren(payload []byte) (json.RawMessage, error) {
	req, err := decodeRequest[IDRequest](payload)
	if err != nil {
		return nil, err
	}
	return encode(IDListResponse{IDs: h.store.GetChildren(req.ID)})
}

func (h *Handler) isDescendantOf(payload []byte) (json.RawMessage, error) {
	req, err := decodeRequest[IsDescendantOfRequest](payload)
	if err != nil {
		return nil, err
	}
	isDescendant, err := h.store.IsDescendantOf(req.ID, req.AncestorID)
	if err != nil {
		return nil, err
	}
	return encode(IsDescendantOfResponse{IsDescendant: isDescendant})
}

func (h *Handler) hierarchy(payload []byte, ancestors bool) (json.RawMessage, error) {
	req, err := decodeRequest[HierarchyRequest](payload)
	if err != nil {
		return nil, err
	}

	var ids []snomed.SctID
	if ancestors {
		ids, err = h.store.GetAncestors(req.ID)
	} else {
		ids, err = h.store.GetDescendants(req.ID)
	}
	if err != nil {
		return nil, err
	}

	if req.IncludeSelf {
		ids = append(ids, req.ID)
	}
	total := len(ids)
	if req.Limit > 0 && req.Limit < len(ids) {
		ids = ids[:req.Limit]
	}
	return encode(HierarchyResponse{
		IDs:        ids,
		TotalCount: total,
		Truncated:  total > len(ids),
	})
}

func (h *Handler) search(payload []byte) (json.RawMessage, error) {
	req, err := decodeRequest[SearchRequest](payload)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = h.defaultLimit
	}
	matches := h.store.Search(req.Query, limit, req.ActiveOnly)
	if matches == nil {
		matches = []store.SearchMatch{}
	}
	return encode(SearchResponse{Matches: matches})
}

func (h *Handler) executeECL(ctx context.Context, payload []byte) (json.RawMessage, error) {
	req, err := decodeRequest[ExecuteECLRequest](payload)
	if err != nil {
		return nil, err
	}

	cacheKey := string(req.Expression) + "|" + strconv.Itoa(req.Limit) +
		"|" + strconv.FormatBool(req.IncludeDetails)
	if cached, ok := h.eclCache.Get(cacheKey); ok {
		return encode(cached)
	}

	expr, err := ecl.UnmarshalExpr(req.Expression)
	if err != nil {
		return nil, errors.WrapQuery(err, "Handler", "executeECL", "expression decoding")
	}

	result, err := h.evaluator.Evaluate(ctx, expr, req.Limit)
	if err != nil {
		return nil, err
	}

	resp := ExecuteECLResponse{
		IDs:             result.IDs,
		TotalCount:      result.TotalCount,
		Truncated:       result.Truncated,
		ExecutionTimeMs: result.ExecutionTime.Milliseconds(),
	}
	if req.IncludeDetails {
		resp.Details = make([]ConceptDetail, 0, len(result.IDs))
		for _, id := range result.IDs {
			detail := ConceptDetail{ID: id}
			if fsn, ok := h.store.GetFSN(id); ok {
				detail.FSN = fsn.Term
			}
			resp.Details = append(resp.Details, detail)
		}
	}

	h.eclCache.Set(cacheKey, resp)
	return encode(resp)
}

func (h *Handler) matchesECL(ctx context.Context, payload []byte) (json.RawMessage, error) {
	req, err := decodeRequest[MatchesECLRequest](payload)
	if err != nil {
		return nil, err
	}
	expr, err := ecl.UnmarshalExpr(req.Expression)
	if err != nil {
		return nil, errors.WrapQuery(err, "Handler", "matchesECL", "expression decoding")
	}
	matches, err := h.evaluator.Matches(ctx, req.ID, expr)
	if err != nil {
		return nil, err
	}
	return encode(MatchesECLResponse{Matches: matches})
}

func (h *Handler) stats() (json.RawMessage, error) {
	return encode(StatsResponse{
		Serving:           h.store.IsServing(),
		ConceptCount:      h.store.ConceptCount(),
		DescriptionCount:  h.store.DescriptionCount(),
		RelationshipCount: h.store.RelationshipCount(),
		Load:              h.store.Stats(),
	})
}
