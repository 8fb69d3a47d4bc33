package cmis

import "context"

// ResultSet is a lazily materialized view over one page of raw results.
// Materialization happens exactly once; the same slice comes back on every
// subsequent call, in server order.
type ResultSet struct {
	client     *Client
	repo       *Repository
	data       map[string]any
	serializer serializer

	results []CmisObject
	done    bool
}

func newResultSet(client *Client, repo *Repository, data map[string]any, s serializer) *ResultSet {
	return &ResultSet{client: client, repo: repo, data: data, serializer: s}
}

// Results materializes the page through the assigned serializer. The call
// is idempotent: repeated calls return the identical sequence. No network
// traffic happens here; the page was fetched when the ResultSet was built.
func (rs *ResultSet) Results() ([]CmisObject, error) {
	if rs.done {
		return rs.results, nil
	}
	results, err := rs.serializer.fromJSON(rs.client, rs.repo, rs.data)
	if err != nil {
		return nil, err
	}
	rs.results = results
	rs.done = true
	return rs.results, nil
}

// resultTree rebuilds the hierarchy of a tree-shaped page. Only pages
// fetched through a descendants or foldertree selector carry one.
func (rs *ResultSet) resultTree() ([]*TreeNode, error) {
	raw, ok := rs.data["tree"].([]any)
	if !ok {
		return nil, opError("ResultTree", ErrInvariant, "result page is not tree shaped")
	}
	return parseObjectTree(rs.client, rs.repo, raw)
}

// HasObject reports whether the given object id appears in the results.
func (rs *ResultSet) HasObject(ctx context.Context, objectID string) (bool, error) {
	results, err := rs.Results()
	if err != nil {
		return false, err
	}
	for _, obj := range results {
		id, err := obj.ObjectID(ctx)
		if err != nil {
			return false, err
		}
		if id == objectID {
			return true, nil
		}
	}
	return false, nil
}

// HasNext reports the server's hasMoreItems flag. The second return is
// false when the server omitted the field: the value is unknown then, not
// false.
func (rs *ResultSet) HasNext() (bool, bool) {
	v, ok := rs.data["hasMoreItems"].(bool)
	return v, ok
}

// NumItems reports the server's total item count, with the same unknown
// semantics as HasNext.
func (rs *ResultSet) NumItems() (int64, bool) {
	v, ok := rs.data["numItems"].(float64)
	return int64(v), ok
}
