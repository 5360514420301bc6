package routing

import "strings"

// TokenOverlapMatcher matches a query to a collection by token overlap:
// the first collection whose lowercased name contains any query token as a
// substring wins; otherwise the first collection in store order.
type TokenOverlapMatcher struct{}

var _ Matcher = TokenOverlapMatcher{}

// Match implements Matcher. collections must be non-empty.
func (TokenOverlapMatcher) Match(query string, collections []string) string {
	if len(collections) == 0 {
		return ""
	}

	tokens := strings.Fields(strings.ToLower(query))
	for _, collection := range collections {
		name := strings.ToLower(collection)
		for _, token := range tokens {
			if strings.Contains(name, token) {
				return collection
			}
		}
	}

	return collections[0]
}
