package ai

// Candidate is the profile summary handed to an Explainer. It carries only
// what the reasoning prompt needs; mapping from richer domain types happens
// at the call site.
type Candidate struct {
	Login    string
	Bio      string
	Location string
	Company  string

	// Repositories holds the candidate's top repositories, best first.
	Repositories []CandidateRepo
}

// CandidateRepo is one repository in a Candidate summary.
type CandidateRepo struct {
	Name        string
	Description string
	Language    string
	Stars       int

	// Readme is raw README text, empty when none was collected.
	Readme string
}
