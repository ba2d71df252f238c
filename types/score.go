package types

// SourceCategory labels the credibility band of a scored source.
type SourceCategory string

const (
	CategoryAcademic      SourceCategory = "Academic/Government"
	CategoryMedical       SourceCategory = "Medical Authority"
	CategoryNewsTech      SourceCategory = "News/Tech"
	CategoryEncyclopedia  SourceCategory = "Encyclopedia"
	CategoryGeneral       SourceCategory = "General"
	CategoryUserGenerated SourceCategory = "User-Generated"
)

// AuthorityScore is a heuristic credibility rating for a fetched source.
// Value is always within [0, 10]. Reasons lists every bonus that fired, in
// evaluation order, so a ranking can be explained to the end user.
type AuthorityScore struct {
	Value    float64        `json:"value"`
	Category SourceCategory `json:"category"`
	Reasons  []string       `json:"reasons"`
}
