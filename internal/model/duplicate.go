package model

// DuplicateMatch is one fuzzy-matched product for a candidate.
type DuplicateMatch struct {
	Product     Product `json:"product"`
	Similarity  float64 `json:"similarity"`
	ExactPrefix bool    `json:"exact_prefix"`
}

// DuplicateCandidate is advisory output for the admin merge workflow. It is
// never persisted.
type DuplicateCandidate struct {
	Product Product          `json:"product"`
	Matches []DuplicateMatch `json:"matches"`
}
