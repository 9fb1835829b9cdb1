package model

import "strings"

// RepositoryIdentifier identifies a GitHub repository by owner and name
type RepositoryIdentifier struct {
	Owner string
	Name  string
}

// String returns the "owner/name" form
func (r RepositoryIdentifier) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository parses "owner/name". It returns nil when the text does not
// consist of exactly two non-empty segments.
func ParseRepository(text string) *RepositoryIdentifier {
	parts := strings.Split(text, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil
	}
	return &RepositoryIdentifier{Owner: parts[0], Name: parts[1]}
}
