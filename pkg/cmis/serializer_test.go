package cmis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawObject(id, baseType string) map[string]any {
	return map[string]any{
		"properties": map[string]any{
			"cmis:objectId": map[string]any{
				"id": "cmis:objectId", "type": "id", "value": id,
			},
			"cmis:baseTypeId": map[string]any{
				"id": "cmis:baseTypeId", "type": "id", "value": baseType,
			},
		},
	}
}

func TestSpecialize(t *testing.T) {
	tests := []struct {
		name     string
		baseType string
		check    func(t *testing.T, obj CmisObject)
	}{
		{"document", "cmis:document", func(t *testing.T, obj CmisObject) {
			_, ok := obj.(*Document)
			assert.True(t, ok)
			assert.Equal(t, BaseTypeDocument, obj.BaseType())
		}},
		{"folder", "cmis:folder", func(t *testing.T, obj CmisObject) {
			_, ok := obj.(*Folder)
			assert.True(t, ok)
			assert.Equal(t, BaseTypeFolder, obj.BaseType())
		}},
		{"relationship", "cmis:relationship", func(t *testing.T, obj CmisObject) {
			_, ok := obj.(*Relationship)
			assert.True(t, ok)
		}},
		{"policy", "cmis:policy", func(t *testing.T, obj CmisObject) {
			_, ok := obj.(*Policy)
			assert.True(t, ok)
		}},
		{"unknown stays generic", "", func(t *testing.T, obj CmisObject) {
			_, ok := obj.(*Object)
			assert.True(t, ok)
			assert.Equal(t, BaseTypeUnknown, obj.BaseType())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := Specialize(newObject(nil, nil, "", rawObject("x", tt.baseType)))
			tt.check(t, obj)
		})
	}
}

func TestChildrenSerializer(t *testing.T) {
	data := map[string]any{
		"objects": []any{
			map[string]any{"object": rawObject("doc-1", "cmis:document")},
			map[string]any{"object": rawObject("folder-1", "cmis:folder")},
		},
	}

	results, err := childrenSerializer{}.fromJSON(nil, nil, data)
	require.NoError(t, err)
	require.Len(t, results, 2)

	_, ok := results[0].(*Document)
	assert.True(t, ok)
	_, ok = results[1].(*Folder)
	assert.True(t, ok)

	id, err := results[0].ObjectID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)
}

func TestQueryResultsSerializer(t *testing.T) {
	data := map[string]any{
		"results": []any{
			rawObject("doc-1", "cmis:document"),
			rawObject("mystery", ""),
		},
	}

	results, err := queryResultsSerializer{}.fromJSON(nil, nil, data)
	require.NoError(t, err)
	require.Len(t, results, 2)

	_, ok := results[0].(*Document)
	assert.True(t, ok)
	// a projection without cmis:baseTypeId stays generic
	_, ok = results[1].(*Object)
	assert.True(t, ok)
}

func TestObjectListSerializer_MissingList(t *testing.T) {
	_, err := objectListSerializer{}.fromJSON(nil, nil, map[string]any{})
	require.ErrorIs(t, err, ErrInvariant)
}

func treeContainer(id, baseType string, children ...any) map[string]any {
	c := map[string]any{
		"object": map[string]any{"object": rawObject(id, baseType)},
	}
	if len(children) > 0 {
		c["children"] = children
	}
	return c
}

func TestTreeSerializer_FlattensPreOrder(t *testing.T) {
	data := map[string]any{
		"tree": []any{
			treeContainer("a", "cmis:folder",
				treeContainer("a1", "cmis:document"),
				treeContainer("a2", "cmis:folder",
					treeContainer("a2x", "cmis:document"),
				),
			),
			treeContainer("b", "cmis:document"),
		},
	}

	results, err := treeSerializer{}.fromJSON(nil, nil, data)
	require.NoError(t, err)

	ctx := context.Background()
	var ids []string
	for _, obj := range results {
		id, err := obj.ObjectID(ctx)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"a", "a1", "a2", "a2x", "b"}, ids)
}

func TestParseObjectTree_PreservesHierarchy(t *testing.T) {
	raw := []any{
		treeContainer("a", "cmis:folder",
			treeContainer("a1", "cmis:document"),
		),
	}

	nodes, err := parseObjectTree(nil, nil, raw)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Children, 1)

	ctx := context.Background()
	rootID, err := nodes[0].Object.ObjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", rootID)
	childID, err := nodes[0].Children[0].Object.ObjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", childID)
}

func TestParseTypeTree(t *testing.T) {
	raw := []any{
		map[string]any{
			"type": map[string]any{"id": "cmis:document", "displayName": "Document"},
			"children": []any{
				map[string]any{
					"type": map[string]any{"id": "vendor:invoice", "displayName": "Invoice"},
				},
			},
		},
	}

	types, err := parseTypeTree(nil, nil, raw)
	require.NoError(t, err)
	require.Len(t, types, 2)

	ctx := context.Background()
	id, err := types[0].TypeID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cmis:document", id)
	id, err = types[1].TypeID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "vendor:invoice", id)
}
