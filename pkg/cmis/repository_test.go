package cmis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServiceDoc = `{
	"repo1": {
		"repositoryId": "repo1",
		"repositoryName": "Main",
		"repositoryDescription": "Primary repository",
		"vendorName": "ContentForge",
		"productName": "ForgeCM",
		"productVersion": "3.2",
		"cmisVersionSupported": "1.1",
		"rootFolderId": "root-1",
		"rootFolderUrl": "http://cmis.test/browser/repo1/root",
		"repositoryUrl": "http://cmis.test/browser/repo1",
		"capabilities": {"capabilityACL": "manage", "capabilityChanges": "objectidsonly"}
	},
	"repo2": {
		"repositoryId": "repo2",
		"repositoryName": "Archive",
		"rootFolderUrl": "http://cmis.test/browser/repo2/root",
		"repositoryUrl": "http://cmis.test/browser/repo2"
	}
}`

func TestClient_Repositories(t *testing.T) {
	ft := newFakeTransport(t)
	ft.serviceDoc = testServiceDoc
	client, err := NewClient(Config{ServiceURL: "http://cmis.test/browser", Transport: ft})
	require.NoError(t, err)
	ctx := context.Background()

	repos, err := client.Repositories(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "repo1", repos[0].ID)
	assert.Equal(t, "Main", repos[0].Name)
	assert.Equal(t, "repo2", repos[1].ID)
}

func TestClient_Repository(t *testing.T) {
	ft := newFakeTransport(t)
	ft.serviceDoc = testServiceDoc
	client, err := NewClient(Config{ServiceURL: "http://cmis.test/browser", Transport: ft})
	require.NoError(t, err)
	ctx := context.Background()

	repo, err := client.Repository(ctx, "repo1")
	require.NoError(t, err)
	assert.Equal(t, "repo1", repo.ID())
	assert.Equal(t, "Main", repo.Name())

	_, err = client.Repository(ctx, "nope")
	require.ErrorIs(t, err, ErrObjectNotFound)
}

func TestClient_DefaultRepository(t *testing.T) {
	ft := newFakeTransport(t)
	ft.serviceDoc = testServiceDoc
	client, err := NewClient(Config{ServiceURL: "http://cmis.test/browser", Transport: ft})
	require.NoError(t, err)

	repo, err := client.DefaultRepository(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "repo1", repo.ID())
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"missing url", Config{Transport: newFakeTransport(t)}},
		{"missing transport", Config{ServiceURL: "http://cmis.test/browser"}},
		{"malformed url", Config{ServiceURL: "::/not-a-url", Transport: newFakeTransport(t)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.config)
			require.Error(t, err)
		})
	}
}

func TestRepository_Info(t *testing.T) {
	ft := newFakeTransport(t)
	ft.serviceDoc = testServiceDoc
	client, err := NewClient(Config{ServiceURL: "http://cmis.test/browser", Transport: ft})
	require.NoError(t, err)

	repo, err := client.Repository(context.Background(), "repo1")
	require.NoError(t, err)

	info, err := repo.Info()
	require.NoError(t, err)
	assert.Equal(t, "repo1", info.ID)
	assert.Equal(t, "Primary repository", info.Description)
	assert.Equal(t, "ForgeCM", info.ProductName)
	assert.Equal(t, "1.1", info.CMISVersionSupported)
	assert.Equal(t, "root-1", info.RootFolderID)
}

func TestRepository_Capabilities(t *testing.T) {
	ft := newFakeTransport(t)
	_, repo := newTestClient(t, ft, map[string]any{
		"ACL":     "manage",
		"Changes": "all",
		"Query":   "bothcombined",
	})

	caps := repo.Capabilities()
	// wire-level "capability" prefixes are stripped
	assert.Equal(t, "manage", caps["ACL"])
	assert.Equal(t, "bothcombined", caps["Query"])
	assert.True(t, repo.aclCapable())
	assert.True(t, repo.aclManageable())
	assert.True(t, repo.changesCapable())
}

func TestRepository_CapabilityAbsence(t *testing.T) {
	tests := []struct {
		name string
		caps map[string]any
	}{
		{"explicit none", map[string]any{"ACL": "none", "Changes": "none"}},
		{"missing entirely", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, repo := newTestClient(t, newFakeTransport(t), tt.caps)
			assert.False(t, repo.aclCapable())
			assert.False(t, repo.aclManageable())
			assert.False(t, repo.changesCapable())
		})
	}
}

func TestRepository_ACLIntrospection(t *testing.T) {
	ft := newFakeTransport(t)
	client, err := NewClient(Config{ServiceURL: "http://cmis.test/browser", Transport: ft})
	require.NoError(t, err)

	repo := newRepository(client, map[string]any{
		"repositoryId": "repo1",
		"capabilities": map[string]any{"capabilityACL": "manage"},
		"aclCapabilities": map[string]any{
			"supportedPermissions": "basic",
			"propagation":          "propagate",
			"permissions": []any{
				map[string]any{"permission": "cmis:read", "description": "Read"},
				map[string]any{"permission": "cmis:write", "description": "Write"},
			},
			"permissionMapping": []any{
				map[string]any{"key": "canGetProperties.Object", "permission": []any{"cmis:read"}},
			},
		},
	})

	supported, err := repo.SupportedPermissions()
	require.NoError(t, err)
	assert.Equal(t, "basic", supported)

	propagation, err := repo.Propagation()
	require.NoError(t, err)
	assert.Equal(t, "propagate", propagation)

	defs, err := repo.PermissionDefinitions()
	require.NoError(t, err)
	assert.Equal(t, "Read", defs["cmis:read"])

	mapping, err := repo.PermissionMap()
	require.NoError(t, err)
	assert.Equal(t, []string{"cmis:read"}, mapping["canGetProperties.Object"])
}

func TestRepository_ACLIntrospection_Gated(t *testing.T) {
	_, repo := newTestClient(t, newFakeTransport(t), nil)

	_, err := repo.SupportedPermissions()
	require.ErrorIs(t, err, ErrNotSupported)
	_, err = repo.PermissionMap()
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestRepository_Query(t *testing.T) {
	ft := newFakeTransport(t)
	ft.byAction["query"] = `{
		"results": [` + objectJSON("doc-1", "cmis:document", nil) + `],
		"hasMoreItems": false,
		"numItems": 1
	}`
	_, repo := newTestClient(t, ft, nil)
	ctx := context.Background()

	rs, err := repo.Query(ctx, "SELECT * FROM cmis:document", WithMaxItems(10))
	require.NoError(t, err)

	form := ft.lastCall().form
	assert.Equal(t, []string{"query"}, form["cmisaction"])
	assert.Equal(t, []string{"SELECT * FROM cmis:document"}, form["q"])
	assert.Equal(t, []string{"10"}, form["maxItems"])

	results, err := rs.Results()
	require.NoError(t, err)
	require.Len(t, results, 1)
	_, ok := results[0].(*Document)
	assert.True(t, ok)
}

func TestRepository_GetObjectByPath(t *testing.T) {
	ft := newFakeTransport(t)
	ft.bySelector["object"] = objectJSON("doc-1", "cmis:document", nil)
	_, repo := newTestClient(t, ft, nil)
	ctx := context.Background()

	obj, err := repo.GetObjectByPath(ctx, "/Sales/Q3 report.pdf")
	require.NoError(t, err)
	_, ok := obj.(*Document)
	assert.True(t, ok)

	// path segments are escaped, separators kept
	assert.Equal(t, "http://cmis.test/browser/repo1/root/Sales/Q3%20report.pdf", ft.lastCall().url)
}

func TestRepository_ContentChanges(t *testing.T) {
	t.Run("gated without capability", func(t *testing.T) {
		ft := newFakeTransport(t)
		_, repo := newTestClient(t, ft, nil)

		_, err := repo.ContentChanges(context.Background())
		require.ErrorIs(t, err, ErrNotSupported)
		assert.Empty(t, ft.calls)
	})

	t.Run("parses entries", func(t *testing.T) {
		ft := newFakeTransport(t)
		ft.bySelector["contentChanges"] = `{
			"objects": [
				{"id": "change-1",
				 "properties": {
					"cmis:objectId": {"id": "cmis:objectId", "type": "id", "value": "doc-1"}
				 },
				 "changeEventInfo": {"changeType": "updated", "changeTime": 1700000000000}},
				{"changeEventInfo": {"changeType": "deleted", "changeTime": 1700000100000}}
			],
			"hasMoreItems": false
		}`
		_, repo := newTestClient(t, ft, map[string]any{"Changes": "properties"})
		ctx := context.Background()

		rs, err := repo.ContentChanges(ctx, WithChangeLogToken("tok-1"))
		require.NoError(t, err)
		assert.Equal(t, "tok-1", ft.lastCall().params.Get("changeLogToken"))

		entries, err := rs.Results()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "change-1", entries[0].ID)
		assert.Equal(t, "doc-1", entries[0].ObjectID)
		assert.Equal(t, ChangeUpdated, entries[0].Type)
		assert.Equal(t, int64(1700000000), entries[0].Time.Unix())
		// entry id and object id are both optional
		assert.Empty(t, entries[1].ID)
		assert.Equal(t, ChangeDeleted, entries[1].Type)

		more, ok := rs.HasNext()
		require.True(t, ok)
		assert.False(t, more)
		_, ok = rs.NumItems()
		assert.False(t, ok)
	})
}

func TestRepository_CreateDocument_NilParent(t *testing.T) {
	ctx := context.Background()

	t.Run("filing required", func(t *testing.T) {
		ft := newFakeTransport(t)
		_, repo := newTestClient(t, ft, nil)

		_, err := repo.CreateDocument(ctx, "x.txt", nil, CreateDocumentOptions{})
		require.ErrorIs(t, err, ErrInvalidArgument)
		assert.Empty(t, ft.calls)
	})

	t.Run("unfiling advertised but unimplemented", func(t *testing.T) {
		ft := newFakeTransport(t)
		_, repo := newTestClient(t, ft, map[string]any{"Unfiling": true})

		_, err := repo.CreateDocument(ctx, "x.txt", nil, CreateDocumentOptions{})
		require.ErrorIs(t, err, ErrNotSupported)
		assert.Empty(t, ft.calls)
	})
}

func TestRepository_CreateDocumentFromString(t *testing.T) {
	ft := newFakeTransport(t)
	ft.byAction["createDocument"] = objectJSON("doc-new", "cmis:document", nil)
	client, repo := newTestClient(t, ft, nil)
	ctx := context.Background()

	parent := &Folder{Object: *newObject(client, repo, "root-id", nil)}
	doc, err := repo.CreateDocumentFromString(ctx, "notes.txt", parent,
		"hello world", "text/plain", map[string]any{"vendor:status": "draft"})
	require.NoError(t, err)

	form := ft.lastCall().form
	assert.Equal(t, []string{"root-id"}, form["objectId"])
	assert.Equal(t, []string{"cmis:name"}, form["propertyId[0]"])
	assert.Equal(t, []string{"notes.txt"}, form["propertyValue[0]"])
	assert.Equal(t, []string{"cmis:document"}, form["propertyValue[1]"])
	assert.Equal(t, []string{"vendor:status"}, form["propertyId[2]"])
	assert.Equal(t, []string{"hello world"}, form["content"])

	id, err := doc.ObjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doc-new", id)
}

func TestRepository_TypeServices(t *testing.T) {
	ft := newFakeTransport(t)
	ft.bySelector["typeDefinition"] = `{
		"id": "vendor:invoice",
		"displayName": "Invoice",
		"baseId": "cmis:document",
		"creatable": true,
		"queryable": true,
		"propertyDefinitions": {
			"vendor:total": {
				"id": "vendor:total", "propertyType": "decimal",
				"cardinality": "single", "updatability": "readwrite",
				"required": true, "queryable": true
			}
		}
	}`
	ft.bySelector["typeChildren"] = `{
		"types": [
			{"id": "cmis:document", "displayName": "Document"},
			{"id": "cmis:folder", "displayName": "Folder"}
		]
	}`
	ft.bySelector["typeDescendants"] = `[
		{"type": {"id": "cmis:document"},
		 "children": [{"type": {"id": "vendor:invoice"}}]}
	]`
	_, repo := newTestClient(t, ft, nil)
	ctx := context.Background()

	def, err := repo.TypeDefinition(ctx, "vendor:invoice")
	require.NoError(t, err)
	display, err := def.DisplayName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Invoice", display)
	baseID, err := def.BaseID(ctx)
	require.NoError(t, err)
	assert.Equal(t, BaseTypeDocument, baseID)

	props, err := def.PropertyDefinitions(ctx)
	require.NoError(t, err)
	require.Contains(t, props, "vendor:total")
	assert.Equal(t, "decimal", props["vendor:total"].PropertyType)
	assert.True(t, props["vendor:total"].Required)

	children, err := repo.TypeChildren(ctx, "")
	require.NoError(t, err)
	assert.Len(t, children, 2)

	descendants, err := repo.TypeDescendants(ctx, "cmis:document", 3)
	require.NoError(t, err)
	require.Len(t, descendants, 2)
	assert.Equal(t, "3", ft.lastCall().params.Get("depth"))
}
