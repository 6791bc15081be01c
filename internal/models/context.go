package models

// DefaultExcludedExtensions are kept out of the diff body sent for review.
var DefaultExcludedExtensions = []string{"png", "jpg", "jpeg", "gif", "svg", "webp"}

// RepoInfo identifies the working tree a run operates on
type RepoInfo struct {
	Root   string `json:"root"`
	Branch string `json:"branch"`
}

// RepoContext is the read-only snapshot of uncommitted changes sent to the
// advisory service. It is built once per run and never mutated.
type RepoContext struct {
	StatShort        string   `json:"stat_short"`
	StatusShort      string   `json:"status_short"`
	DiffBody         string   `json:"diff_body"`
	ExcludedPatterns []string `json:"excluded_patterns"`
	ExcludedPaths    []string `json:"excluded_paths"`
	DiffTruncated    bool     `json:"diff_truncated"`
}

// StatusEntry is one line of `git status --short`
type StatusEntry struct {
	Index    byte
	Worktree byte
	Path     string
	OrigPath string
}
