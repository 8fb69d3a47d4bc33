package cmis

import (
	"net/url"
	"sort"
	"strconv"
)

// RequestOption customizes the query parameters of a single request. Options
// are applied over the client's session-level defaults, so a caller-supplied
// value always wins. There is no per-object parameter state: what you pass
// to a call is exactly what that call sends.
type RequestOption func(url.Values)

// WithParam sets an arbitrary query parameter verbatim.
func WithParam(key, value string) RequestOption {
	return func(v url.Values) { v.Set(key, value) }
}

// WithFilter restricts the returned properties to the given comma-separated
// query names. Pass "*" for the full property list.
func WithFilter(filter string) RequestOption {
	return func(v url.Values) { v.Set("filter", filter) }
}

// WithAllowableActions requests the allowable actions for each returned
// object.
func WithAllowableActions() RequestOption {
	return func(v url.Values) { v.Set("includeAllowableActions", "true") }
}

// WithACL requests the ACL for each returned object.
func WithACL() RequestOption {
	return func(v url.Values) { v.Set("includeACL", "true") }
}

// WithRelationships controls which relationships are included. Valid values
// are none, source, target and both.
func WithRelationships(direction string) RequestOption {
	return func(v url.Values) { v.Set("includeRelationships", direction) }
}

// WithRenditionFilter restricts the renditions returned for each object.
func WithRenditionFilter(filter string) RequestOption {
	return func(v url.Values) { v.Set("renditionFilter", filter) }
}

// WithReturnVersion requests a specific version of a document. Valid values
// are this, latest and latestmajor. A reload carrying this option clears
// the object's cached identity, since the server may answer with a
// different version's id.
func WithReturnVersion(version string) RequestOption {
	return func(v url.Values) { v.Set("returnVersion", version) }
}

// WithMaxItems limits the page size of a paged result.
func WithMaxItems(n int) RequestOption {
	return func(v url.Values) { v.Set("maxItems", strconv.Itoa(n)) }
}

// WithSkipCount skips the first n items of a paged result.
func WithSkipCount(n int) RequestOption {
	return func(v url.Values) { v.Set("skipCount", strconv.Itoa(n)) }
}

// WithOrderBy sets the server-side ordering of a paged result.
func WithOrderBy(orderBy string) RequestOption {
	return func(v url.Values) { v.Set("orderBy", orderBy) }
}

// WithDepth bounds the depth of descendant and tree operations. Use -1 for
// unbounded, which is also the server default.
func WithDepth(depth int) RequestOption {
	return func(v url.Values) { v.Set(paramDepth, strconv.Itoa(depth)) }
}

// WithChangeLogToken starts a change log read at the given token.
func WithChangeLogToken(token string) RequestOption {
	return func(v url.Values) { v.Set("changeLogToken", token) }
}

// WithPathSegments requests the path segment of each child entry.
func WithPathSegments() RequestOption {
	return func(v url.Values) { v.Set("includePathSegment", "true") }
}

// WithSearchAllVersions extends a query across non-latest versions.
func WithSearchAllVersions() RequestOption {
	return func(v url.Values) { v.Set("searchAllVersions", "true") }
}

// applyOptions merges session defaults and per-call options into a fresh
// url.Values, defaults first so options override them.
func applyOptions(defaults url.Values, opts []RequestOption) url.Values {
	params := url.Values{}
	for k, vs := range defaults {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	for _, opt := range opts {
		opt(params)
	}
	return params
}

// sortedParamKeys returns the parameter names in sorted order for
// deterministic encoding outside url.Values.Encode.
func sortedParamKeys(params url.Values) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// hasOption reports whether the assembled options set the given parameter.
func hasOption(opts []RequestOption, key string) bool {
	v := url.Values{}
	for _, opt := range opts {
		opt(v)
	}
	return v.Has(key)
}
