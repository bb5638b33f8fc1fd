package search

import (
	"strings"

	"github.com/poiesic/litmine/reconcile"
)

// maxTermWords caps the length of the word runs tried as entity names.
const maxTermWords = 4

// queryTerms returns every run of up to maxTermWords consecutive tokens of
// the normalized query, longest runs first. Entity words are stored in
// the same normalized form, so a run can match an entity verbatim.
func queryTerms(query string) []string {
	tokens := strings.Fields(reconcile.NormalizeEntity(query))
	if len(tokens) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var terms []string
	for n := min(maxTermWords, len(tokens)); n > 0; n-- {
		for i := 0; i+n <= len(tokens); i++ {
			term := strings.Join(tokens[i:i+n], " ")
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	return terms
}
