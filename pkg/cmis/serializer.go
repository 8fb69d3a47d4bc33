package cmis

// serializer turns one raw response shape into an ordered sequence of
// domain objects. Each variant handles exactly one wire shape; picking the
// wrong one for a response is a programming error, surfaced as an
// ErrInvariant.
type serializer interface {
	fromJSON(client *Client, repo *Repository, data map[string]any) ([]CmisObject, error)
}

// queryResultsSerializer handles the flat "results" list returned by
// cmisaction=query. Each entry is a raw object, specialized individually.
type queryResultsSerializer struct{}

func (queryResultsSerializer) fromJSON(client *Client, repo *Repository, data map[string]any) ([]CmisObject, error) {
	raw, ok := data["results"].([]any)
	if !ok {
		return nil, opError("Results", ErrInvariant, "query response lacks a results list")
	}
	return specializeEach(client, repo, raw, unwrapNone)
}

// childrenSerializer handles the paged "objects" envelope where each entry
// wraps the raw object under an "object" key (children, parents).
type childrenSerializer struct{}

func (childrenSerializer) fromJSON(client *Client, repo *Repository, data map[string]any) ([]CmisObject, error) {
	raw, ok := data["objects"].([]any)
	if !ok {
		return nil, opError("Results", ErrInvariant, "children response lacks an objects list")
	}
	return specializeEach(client, repo, raw, unwrapObject)
}

// objectListSerializer handles "objects" lists whose entries are raw
// objects with no wrapper (relationships, versions, checked-out docs).
type objectListSerializer struct{}

func (objectListSerializer) fromJSON(client *Client, repo *Repository, data map[string]any) ([]CmisObject, error) {
	raw, ok := data["objects"].([]any)
	if !ok {
		return nil, opError("Results", ErrInvariant, "object list response lacks an objects list")
	}
	return specializeEach(client, repo, raw, unwrapNone)
}

// treeSerializer handles the nested descendants/foldertree representation.
// For the flat ResultSet view the tree is flattened depth-first pre-order:
// each parent precedes its children, sibling order is the server's.
type treeSerializer struct{}

func (treeSerializer) fromJSON(client *Client, repo *Repository, data map[string]any) ([]CmisObject, error) {
	raw, ok := data["tree"].([]any)
	if !ok {
		return nil, opError("Results", ErrInvariant, "tree response is not a list")
	}
	nodes, err := parseObjectTree(client, repo, raw)
	if err != nil {
		return nil, err
	}
	return flattenTree(nodes), nil
}

// unwrap functions peel the per-entry wrapper of a response shape.
func unwrapNone(entry map[string]any) map[string]any { return entry }

func unwrapObject(entry map[string]any) map[string]any {
	inner, _ := entry["object"].(map[string]any)
	return inner
}

func specializeEach(client *Client, repo *Repository, raw []any, unwrap func(map[string]any) map[string]any) ([]CmisObject, error) {
	results := make([]CmisObject, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, opError("Results", ErrInvariant, "result entry is not a JSON object")
		}
		data := unwrap(entry)
		if data == nil {
			return nil, opError("Results", ErrInvariant, "result entry lacks an object member")
		}
		results = append(results, Specialize(newObject(client, repo, "", data)))
	}
	return results, nil
}

// TreeNode is one node of a preserved folder hierarchy: the object itself
// plus its child nodes in server order.
type TreeNode struct {
	Object   CmisObject
	Children []*TreeNode
}

// parseObjectTree builds the hierarchy from the wire representation: a
// list of containers, each holding the raw object under object.object and
// its subtree under children.
func parseObjectTree(client *Client, repo *Repository, raw []any) ([]*TreeNode, error) {
	nodes := make([]*TreeNode, 0, len(raw))
	for _, item := range raw {
		container, ok := item.(map[string]any)
		if !ok {
			return nil, opError("Tree", ErrInvariant, "tree entry is not a JSON object")
		}
		wrapper, _ := container["object"].(map[string]any)
		data, _ := wrapper["object"].(map[string]any)
		if data == nil {
			return nil, opError("Tree", ErrInvariant, "tree entry lacks an object member")
		}
		node := &TreeNode{Object: Specialize(newObject(client, repo, "", data))}
		if rawChildren, ok := container["children"].([]any); ok {
			children, err := parseObjectTree(client, repo, rawChildren)
			if err != nil {
				return nil, err
			}
			node.Children = children
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// flattenTree produces the depth-first pre-order sequence of a node list.
func flattenTree(nodes []*TreeNode) []CmisObject {
	var out []CmisObject
	for _, node := range nodes {
		out = append(out, node.Object)
		out = append(out, flattenTree(node.Children)...)
	}
	return out
}

// parseTypeTree flattens the typeDescendants representation: containers
// hold the raw type definition under "type" and subtrees under "children".
func parseTypeTree(client *Client, repo *Repository, raw []any) ([]*ObjectType, error) {
	var types []*ObjectType
	for _, item := range raw {
		container, ok := item.(map[string]any)
		if !ok {
			return nil, opError("TypeDescendants", ErrInvariant, "type tree entry is not a JSON object")
		}
		data, ok := container["type"].(map[string]any)
		if !ok {
			return nil, opError("TypeDescendants", ErrInvariant, "type tree entry lacks a type member")
		}
		types = append(types, newObjectType(client, repo, "", data))
		if rawChildren, ok := container["children"].([]any); ok {
			children, err := parseTypeTree(client, repo, rawChildren)
			if err != nil {
				return nil, err
			}
			types = append(types, children...)
		}
	}
	return types, nil
}
