package types

import "time"

// OutcomeCondition summarizes how a gathering call went. All of these are
// data, not errors: the coordinator returns an outcome even when every
// candidate failed.
type OutcomeCondition string

const (
	// ConditionOK means the target number of validated results was reached.
	ConditionOK OutcomeCondition = "ok"
	// ConditionPartial means some, but fewer than target, results passed.
	ConditionPartial OutcomeCondition = "partial"
	// ConditionNoCandidates means the search stage supplied nothing to try.
	ConditionNoCandidates OutcomeCondition = "no_candidates"
	// ConditionAllFailed means every attempted candidate failed or was
	// rejected by validation.
	ConditionAllFailed OutcomeCondition = "all_failed"
)

// ScoredResult pairs an accepted FetchResult with its authority score.
type ScoredResult struct {
	Result *FetchResult   `json:"result"`
	Score  AuthorityScore `json:"score"`
	// Rank is the discovery order of the originating candidate.
	Rank int `json:"rank"`
}

// RejectedCandidate records why a candidate did not make the accepted set.
type RejectedCandidate struct {
	URL    string       `json:"url"`
	Reason RejectReason `json:"reason"`
	Detail string       `json:"detail,omitempty"`
}

// GatheringOutcome is the aggregate result of one coordinator invocation.
//
// Accepted is sorted by authority score descending (ties broken by discovery
// order) and never holds more than the configured target count. Rejected
// preserves original candidate order.
type GatheringOutcome struct {
	ID           string           `json:"id"`
	Query        string           `json:"query"`
	Kind         QueryKind        `json:"kind"`
	Reformulated bool             `json:"reformulated,omitempty"`
	Condition    OutcomeCondition `json:"condition"`

	Accepted []ScoredResult      `json:"accepted"`
	Rejected []RejectedCandidate `json:"rejected"`

	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Empty reports whether no result passed validation.
func (o *GatheringOutcome) Empty() bool {
	return len(o.Accepted) == 0
}

// Session carries explicitly injected per-session state, replacing any
// ambient process-wide globals. It records the queries a user has issued so
// the orchestrator can broaden reformulations with earlier context.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Queries   []string  `json:"queries,omitempty"`
}

// Remember appends a query to the session history.
func (s *Session) Remember(query string) {
	if s == nil {
		return
	}
	s.Queries = append(s.Queries, query)
}
