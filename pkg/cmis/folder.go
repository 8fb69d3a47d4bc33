package cmis

import (
	"context"
	"io"
	"strconv"

	"github.com/hashicorp/go-multierror"
)

// Folder is the folder variant of Object. It adds navigation, filing and
// tree operations.
type Folder struct {
	Object
}

// BaseType always reports cmis:folder for a Folder, even before the raw
// data is loaded.
func (f *Folder) BaseType() BaseType { return BaseTypeFolder }

// Path returns the folder's cmis:path property.
func (f *Folder) Path(ctx context.Context) (string, error) {
	props, err := f.Properties(ctx)
	if err != nil {
		return "", err
	}
	path, _ := props["cmis:path"].String()
	return path, nil
}

// CreateFolder creates a child folder with the given name. cmis:objectTypeId
// defaults to cmis:folder unless properties override it.
func (f *Folder) CreateFolder(ctx context.Context, name string, properties map[string]any) (*Folder, error) {
	id, err := f.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := f.repo.RootFolderURL()
	if err != nil {
		return nil, err
	}

	props := map[string]any{}
	for k, v := range properties {
		props[k] = v
	}
	typeID := "cmis:folder"
	if v, ok := props["cmis:objectTypeId"].(string); ok {
		typeID = v
		delete(props, "cmis:objectTypeId")
	}

	form := newForm(actionCreateFolder).
		set(paramObjectID, id).
		set("propertyId[0]", "cmis:name").
		set("propertyValue[0]", name).
		set("propertyId[1]", "cmis:objectTypeId").
		set("propertyValue[1]", typeID)
	form.setProperties(props, 2)

	result, err := f.client.post(ctx, rootURL, form)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("CreateFolder", ErrInvariant, "createFolder returned no object")
	}
	return &Folder{Object: *newObject(f.client, f.repo, "", data)}, nil
}

// CreateDocument creates a document in this folder.
func (f *Folder) CreateDocument(ctx context.Context, name string, opts CreateDocumentOptions) (*Document, error) {
	return f.repo.CreateDocument(ctx, name, f, opts)
}

// CreateDocumentFromString creates a document in this folder whose content
// is the given string.
func (f *Folder) CreateDocumentFromString(ctx context.Context, name, content, contentType string, properties map[string]any) (*Document, error) {
	return f.repo.CreateDocumentFromString(ctx, name, f, content, contentType, properties)
}

// Children returns the folder's direct children as a paged result.
func (f *Folder) Children(ctx context.Context, opts ...RequestOption) (*ResultSet, error) {
	id, err := f.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := f.repo.RootFolderURL()
	if err != nil {
		return nil, err
	}
	all := append([]RequestOption{
		WithParam(paramObjectID, id),
		WithParam(paramSelector, selectorChildren),
	}, opts...)
	result, err := f.client.get(ctx, rootURL, all)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("GetChildren", ErrInvariant, "children response is not a JSON object")
	}
	return newResultSet(f.client, f.repo, data, childrenSerializer{}), nil
}

// Descendants returns the subtree below this folder, flattened pre-order
// so each parent precedes its children. Use DescendantTree when the
// hierarchy itself matters. depth bounds the traversal; pass -1 or 0 for
// unbounded.
func (f *Folder) Descendants(ctx context.Context, depth int, opts ...RequestOption) (*ResultSet, error) {
	return f.tree(ctx, selectorDescendants, "GetDescendants", depth, opts)
}

// FolderTree returns only the folders below this folder, flattened
// pre-order.
func (f *Folder) FolderTree(ctx context.Context, depth int, opts ...RequestOption) (*ResultSet, error) {
	return f.tree(ctx, selectorFolderTree, "GetFolderTree", depth, opts)
}

func (f *Folder) tree(ctx context.Context, selector, op string, depth int, opts []RequestOption) (*ResultSet, error) {
	id, err := f.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := f.repo.RootFolderURL()
	if err != nil {
		return nil, err
	}
	all := []RequestOption{
		WithParam(paramObjectID, id),
		WithParam(paramSelector, selector),
	}
	if depth != 0 {
		all = append(all, WithDepth(depth))
	}
	all = append(all, opts...)
	result, err := f.client.get(ctx, rootURL, all)
	if err != nil {
		return nil, err
	}
	raw, ok := result.([]any)
	if !ok {
		return nil, opError(op, ErrInvariant, "tree response is not a list")
	}
	// tree responses arrive as a bare list of nested containers
	return newResultSet(f.client, f.repo, map[string]any{"tree": raw}, treeSerializer{}), nil
}

// DescendantTree returns the subtree below this folder with its hierarchy
// preserved.
func (f *Folder) DescendantTree(ctx context.Context, depth int, opts ...RequestOption) ([]*TreeNode, error) {
	rs, err := f.Descendants(ctx, depth, opts...)
	if err != nil {
		return nil, err
	}
	return rs.resultTree()
}

// FolderTreeNodes returns the folder-only subtree with its hierarchy
// preserved.
func (f *Folder) FolderTreeNodes(ctx context.Context, depth int, opts ...RequestOption) ([]*TreeNode, error) {
	rs, err := f.FolderTree(ctx, depth, opts...)
	if err != nil {
		return nil, err
	}
	return rs.resultTree()
}

// Parent returns this folder's parent, or ErrObjectNotFound for the root
// folder. The handle is unloaded; only the id comes from this folder's
// properties.
func (f *Folder) Parent(ctx context.Context) (*Folder, error) {
	props, err := f.Properties(ctx)
	if err != nil {
		return nil, err
	}
	parentID, ok := props["cmis:parentId"].ID()
	if !ok || parentID == "" {
		return nil, opError("GetFolderParent", ErrObjectNotFound, "folder has no parent")
	}
	return &Folder{Object: *newObject(f.client, f.repo, parentID, nil)}, nil
}

// DeleteTreeOptions controls a subtree deletion.
type DeleteTreeOptions struct {
	// AllVersions deletes every version of contained documents.
	AllVersions bool

	// UnfileObjects selects what happens to multi-filed objects: unfile,
	// deletesinglefiled or delete. Empty leaves the server default.
	UnfileObjects string

	// ContinueOnFailure asks the server to keep deleting past individual
	// failures and report the ids it could not remove.
	ContinueOnFailure bool
}

// DeleteTree deletes this folder and everything below it. When the server
// reports objects it could not delete, the returned error wraps one entry
// per failed id.
func (f *Folder) DeleteTree(ctx context.Context, opts DeleteTreeOptions) error {
	id, err := f.ObjectID(ctx)
	if err != nil {
		return err
	}
	rootURL, err := f.repo.RootFolderURL()
	if err != nil {
		return err
	}
	form := newForm(actionDeleteTree).
		set(paramObjectID, id).
		set("allVersions", strconv.FormatBool(opts.AllVersions)).
		set("continueOnFailure", strconv.FormatBool(opts.ContinueOnFailure))
	if opts.UnfileObjects != "" {
		form.set("unfileObjects", opts.UnfileObjects)
	}
	result, err := f.client.post(ctx, rootURL, form)
	if err != nil {
		return err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil
	}
	failed, ok := data["ids"].([]any)
	if !ok || len(failed) == 0 {
		return nil
	}
	var merr *multierror.Error
	for _, item := range failed {
		if failedID, ok := item.(string); ok {
			merr = multierror.Append(merr, opError("DeleteTree", ErrRuntime, "could not delete "+failedID))
		}
	}
	return merr.ErrorOrNil()
}

// AddObject files the given object into this folder. The repository must
// support multifiling.
func (f *Folder) AddObject(ctx context.Context, obj CmisObject) error {
	if v, _ := f.repo.Capabilities()["Multifiling"].(bool); !v {
		return opError("AddObjectToFolder", ErrNotSupported, "repository does not support multifiling")
	}
	objID, err := obj.ObjectID(ctx)
	if err != nil {
		return err
	}
	folderID, err := f.ObjectID(ctx)
	if err != nil {
		return err
	}
	rootURL, err := f.repo.RootFolderURL()
	if err != nil {
		return err
	}
	form := newForm(actionAddObjectToFolder).
		set(paramObjectID, objID).
		set("folderId", folderID)
	_, err = f.client.post(ctx, rootURL, form)
	return err
}

// RemoveObject unfiles the given object from this folder. The repository
// must support unfiling.
func (f *Folder) RemoveObject(ctx context.Context, obj CmisObject) error {
	if !f.repo.unfilingCapable() {
		return opError("RemoveObjectFromFolder", ErrNotSupported, "repository does not support unfiling")
	}
	objID, err := obj.ObjectID(ctx)
	if err != nil {
		return err
	}
	folderID, err := f.ObjectID(ctx)
	if err != nil {
		return err
	}
	rootURL, err := f.repo.RootFolderURL()
	if err != nil {
		return err
	}
	form := newForm(actionRemoveObjectFromFolder).
		set(paramObjectID, objID).
		set("folderId", folderID)
	_, err = f.client.post(ctx, rootURL, form)
	return err
}

// Paths returns the folder's single repository path. The slice shape
// matches Document.Paths, where multifiling allows several.
func (f *Folder) Paths(ctx context.Context) ([]string, error) {
	path, err := f.Path(ctx)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	return []string{path}, nil
}

// CreateDocumentFromReader creates a document in this folder streaming its
// content from the given reader.
func (f *Folder) CreateDocumentFromReader(ctx context.Context, name string, content io.Reader, contentType string, properties map[string]any) (*Document, error) {
	return f.repo.CreateDocument(ctx, name, f, CreateDocumentOptions{
		Properties:  properties,
		Content:     content,
		ContentType: contentType,
	})
}
