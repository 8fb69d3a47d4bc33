package cmis

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// RepositoryInfo is the typed view of a service-document workspace entry.
type RepositoryInfo struct {
	ID                    string `mapstructure:"repositoryId"`
	Name                  string `mapstructure:"repositoryName"`
	Description           string `mapstructure:"repositoryDescription"`
	VendorName            string `mapstructure:"vendorName"`
	ProductName           string `mapstructure:"productName"`
	ProductVersion        string `mapstructure:"productVersion"`
	RootFolderID          string `mapstructure:"rootFolderId"`
	LatestChangeLogToken  string `mapstructure:"latestChangeLogToken"`
	CMISVersionSupported  string `mapstructure:"cmisVersionSupported"`
	ChangesIncomplete     bool   `mapstructure:"changesIncomplete"`
	ChangesOnType         []any  `mapstructure:"changesOnType"`
	PrincipalIDAnonymous  string `mapstructure:"principalIdAnonymous"`
	PrincipalIDAnyone     string `mapstructure:"principalIdAnyone"`
	ThinClientURI         string `mapstructure:"thinClientURI"`
}

// aclCapabilities is the wire shape of the aclCapabilities member.
type aclCapabilities struct {
	SupportedPermissions string               `mapstructure:"supportedPermissions"`
	Propagation          string               `mapstructure:"propagation"`
	Permissions          []permissionDef      `mapstructure:"permissions"`
	PermissionMapping    []permissionMapEntry `mapstructure:"permissionMapping"`
}

type permissionDef struct {
	Permission  string `mapstructure:"permission"`
	Description string `mapstructure:"description"`
}

type permissionMapEntry struct {
	Key        string   `mapstructure:"key"`
	Permission []string `mapstructure:"permission"`
}

// Repository is an immutable snapshot of one content repository, built
// from its service-document workspace entry. Derived views (info,
// capabilities, ACL capability sub-structure) are computed lazily, cached
// after first access, and cleared by Reload.
type Repository struct {
	client *Client
	data   map[string]any

	info    *RepositoryInfo
	caps    map[string]any
	aclCaps *aclCapabilities
}

func newRepository(client *Client, data map[string]any) *Repository {
	return &Repository{client: client, data: data}
}

// ID returns the repository's unique identifier.
func (r *Repository) ID() string {
	return stringField(r.data, "repositoryId")
}

// Name returns the repository's display name.
func (r *Repository) Name() string {
	return stringField(r.data, "repositoryName")
}

// Info returns the typed repository information block.
func (r *Repository) Info() (*RepositoryInfo, error) {
	if r.info != nil {
		return r.info, nil
	}
	var info RepositoryInfo
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &info,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(r.data); err != nil {
		return nil, fmt.Errorf("decoding repository info: %w", err)
	}
	r.info = &info
	return r.info, nil
}

// Capabilities returns the repository's capability map. Keys have the
// wire-level "capability" prefix stripped, so capabilityACL becomes ACL.
// Values are either booleans or enumerated strings as the server sent
// them.
func (r *Repository) Capabilities() map[string]any {
	if r.caps != nil {
		return r.caps
	}
	caps := map[string]any{}
	if raw, ok := r.data["capabilities"].(map[string]any); ok {
		for key, v := range raw {
			caps[strings.TrimPrefix(key, "capability")] = v
		}
	}
	r.caps = caps
	return r.caps
}

// aclCapable reports whether the ACL capability is discover or manage.
// The browser binding spells absence as "none" or omits the key entirely.
func (r *Repository) aclCapable() bool {
	switch r.Capabilities()["ACL"] {
	case "discover", "manage":
		return true
	}
	return false
}

// aclManageable reports whether the ACL capability is manage.
func (r *Repository) aclManageable() bool {
	return r.Capabilities()["ACL"] == "manage"
}

// changesCapable reports whether change log access is advertised.
func (r *Repository) changesCapable() bool {
	switch v := r.Capabilities()["Changes"].(type) {
	case string:
		return v != "" && v != "none"
	case bool:
		return v
	}
	return false
}

// unfilingCapable reports whether the repository supports unfiled objects.
func (r *Repository) unfilingCapable() bool {
	v, _ := r.Capabilities()["Unfiling"].(bool)
	return v
}

func (r *Repository) decodeACLCapabilities() (*aclCapabilities, error) {
	if r.aclCaps != nil {
		return r.aclCaps, nil
	}
	raw, ok := r.data["aclCapabilities"].(map[string]any)
	if !ok {
		return nil, opError("ACLCapabilities", ErrInvariant, "workspace entry lacks aclCapabilities")
	}
	var caps aclCapabilities
	if err := mapstructure.Decode(raw, &caps); err != nil {
		return nil, fmt.Errorf("decoding aclCapabilities: %w", err)
	}
	r.aclCaps = &caps
	return r.aclCaps, nil
}

// SupportedPermissions returns the cmis:supportedPermissions mode: basic,
// repository, or both. Fails fast with ErrNotSupported when the ACL
// capability is absent; no request is issued.
func (r *Repository) SupportedPermissions() (string, error) {
	if !r.aclCapable() {
		return "", opError("GetSupportedPermissions", ErrNotSupported, "repository does not support ACLs")
	}
	caps, err := r.decodeACLCapabilities()
	if err != nil {
		return "", err
	}
	return caps.SupportedPermissions, nil
}

// PermissionDefinitions returns permission name mapped to description.
func (r *Repository) PermissionDefinitions() (map[string]string, error) {
	if !r.aclCapable() {
		return nil, opError("GetPermissionDefinitions", ErrNotSupported, "repository does not support ACLs")
	}
	caps, err := r.decodeACLCapabilities()
	if err != nil {
		return nil, err
	}
	defs := make(map[string]string, len(caps.Permissions))
	for _, p := range caps.Permissions {
		defs[p.Permission] = p.Description
	}
	return defs, nil
}

// PermissionMap returns the permission mapping table: operation key mapped
// to the permissions a principal needs for it.
func (r *Repository) PermissionMap() (map[string][]string, error) {
	if !r.aclCapable() {
		return nil, opError("GetPermissionMap", ErrNotSupported, "repository does not support ACLs")
	}
	caps, err := r.decodeACLCapabilities()
	if err != nil {
		return nil, err
	}
	m := make(map[string][]string, len(caps.PermissionMapping))
	for _, entry := range caps.PermissionMapping {
		m[entry.Key] = entry.Permission
	}
	return m, nil
}

// Propagation returns the cmis:propagation mode: objectonly or propagate.
func (r *Repository) Propagation() (string, error) {
	if !r.aclCapable() {
		return "", opError("GetPropagation", ErrNotSupported, "repository does not support ACLs")
	}
	caps, err := r.decodeACLCapabilities()
	if err != nil {
		return "", err
	}
	return caps.Propagation, nil
}

// RootFolderURL returns the URL object operations are issued against.
func (r *Repository) RootFolderURL() (string, error) {
	u := stringField(r.data, "rootFolderUrl")
	if u == "" {
		return "", opError("RootFolderURL", ErrInvariant, "workspace entry lacks rootFolderUrl")
	}
	return u, nil
}

// RepositoryURL returns the URL repository-scoped operations are issued
// against.
func (r *Repository) RepositoryURL() (string, error) {
	u := stringField(r.data, "repositoryUrl")
	if u == "" {
		return "", opError("RepositoryURL", ErrInvariant, "workspace entry lacks repositoryUrl")
	}
	return u, nil
}

// Reload refetches the service document, re-selects this repository's
// workspace entry, and clears every derived cache.
func (r *Repository) Reload(ctx context.Context) error {
	id := r.ID()
	doc, err := r.client.serviceDocument(ctx)
	if err != nil {
		return err
	}
	entry, ok := doc[id].(map[string]any)
	if !ok {
		return opError("ReloadRepository", ErrObjectNotFound, "repository "+id)
	}
	r.data = entry
	r.info = nil
	r.caps = nil
	r.aclCaps = nil
	return nil
}

// RootFolder returns the repository's root folder. The folder is unloaded;
// its data is fetched on first access.
func (r *Repository) RootFolder() (*Folder, error) {
	info, err := r.Info()
	if err != nil {
		return nil, err
	}
	return &Folder{Object: *newObject(r.client, r, info.RootFolderID, nil)}, nil
}

// Object returns an unloaded handle for the given object id. No request is
// issued until an accessor needs data.
func (r *Repository) Object(objectID string) *Object {
	return newObject(r.client, r, objectID, nil)
}

// GetObject fetches the object with the given id and returns its
// specialized variant.
func (r *Repository) GetObject(ctx context.Context, objectID string, opts ...RequestOption) (CmisObject, error) {
	o := newObject(r.client, r, objectID, nil)
	if err := o.Reload(ctx, opts...); err != nil {
		return nil, err
	}
	return Specialize(o), nil
}

// GetObjectByPath fetches the object at the given repository path and
// returns its specialized variant.
func (r *Repository) GetObjectByPath(ctx context.Context, path string, opts ...RequestOption) (CmisObject, error) {
	rootURL, err := r.RootFolderURL()
	if err != nil {
		return nil, err
	}
	all := append([]RequestOption{WithParam(paramSelector, selectorObject)}, opts...)
	result, err := r.client.get(ctx, rootURL+escapePath(path), all)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("GetObjectByPath", ErrInvariant, "object response is not a JSON object")
	}
	return Specialize(newObject(r.client, r, "", data)), nil
}

// GetFolder fetches a folder by id.
func (r *Repository) GetFolder(ctx context.Context, folderID string) (*Folder, error) {
	obj, err := r.GetObject(ctx, folderID)
	if err != nil {
		return nil, err
	}
	folder, ok := obj.(*Folder)
	if !ok {
		return nil, opError("GetFolder", ErrInvalidArgument, folderID+" is not a folder")
	}
	return folder, nil
}

// Query runs a CMIS Query Language statement. The statement is opaque to
// the client and travels to the server verbatim. Include cmis:objectId and
// cmis:baseTypeId in the projection (or use SELECT *) to get fully
// specialized results back.
func (r *Repository) Query(ctx context.Context, statement string, opts ...RequestOption) (*ResultSet, error) {
	repoURL, err := r.RepositoryURL()
	if err != nil {
		return nil, err
	}
	form := newForm(actionQuery).set("q", statement)
	for _, field := range optionFields(opts) {
		form.set(field.name, field.value)
	}
	result, err := r.client.post(ctx, repoURL, form)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("Query", ErrInvariant, "query response is not a JSON object")
	}
	return newResultSet(r.client, r, data, queryResultsSerializer{}), nil
}

// CheckedOutDocs returns the documents currently checked out in this
// repository.
func (r *Repository) CheckedOutDocs(ctx context.Context, opts ...RequestOption) (*ResultSet, error) {
	repoURL, err := r.RepositoryURL()
	if err != nil {
		return nil, err
	}
	all := append([]RequestOption{WithParam(paramSelector, selectorCheckedOut)}, opts...)
	result, err := r.client.get(ctx, repoURL, all)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("GetCheckedOutDocs", ErrInvariant, "checkedOut response is not a JSON object")
	}
	return newResultSet(r.client, r, data, objectListSerializer{}), nil
}

// ContentChanges reads the repository's change log. The Changes capability
// gates the call client-side: when it is absent or none, the call fails
// with ErrNotSupported before any request is sent. Use WithChangeLogToken
// to resume from a known position.
func (r *Repository) ContentChanges(ctx context.Context, opts ...RequestOption) (*ChangeResultSet, error) {
	if !r.changesCapable() {
		return nil, opError("GetContentChanges", ErrNotSupported, "repository does not support a change log")
	}
	repoURL, err := r.RepositoryURL()
	if err != nil {
		return nil, err
	}
	all := append([]RequestOption{WithParam(paramSelector, selectorContentChanges)}, opts...)
	result, err := r.client.get(ctx, repoURL, all)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("GetContentChanges", ErrInvariant, "change log response is not a JSON object")
	}
	return &ChangeResultSet{data: data}, nil
}

// TypeDefinition fetches the complete type definition for a type id.
func (r *Repository) TypeDefinition(ctx context.Context, typeID string) (*ObjectType, error) {
	t := newObjectType(r.client, r, typeID, nil)
	if err := t.Reload(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// TypeChildren lists the direct child types of the given type id, or the
// base types when typeID is empty.
func (r *Repository) TypeChildren(ctx context.Context, typeID string, opts ...RequestOption) ([]*ObjectType, error) {
	repoURL, err := r.RepositoryURL()
	if err != nil {
		return nil, err
	}
	all := []RequestOption{WithParam(paramSelector, selectorTypeChildren)}
	if typeID != "" {
		all = append(all, WithParam(paramTypeID, typeID))
	}
	all = append(all, opts...)
	result, err := r.client.get(ctx, repoURL, all)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("GetTypeChildren", ErrInvariant, "typeChildren response is not a JSON object")
	}
	raw, ok := data["types"].([]any)
	if !ok {
		return nil, opError("GetTypeChildren", ErrInvariant, "typeChildren response lacks a types list")
	}
	types := make([]*ObjectType, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		types = append(types, newObjectType(r.client, r, "", entry))
	}
	return types, nil
}

// TypeDefinitions lists the repository's base types.
func (r *Repository) TypeDefinitions(ctx context.Context) ([]*ObjectType, error) {
	return r.TypeChildren(ctx, "")
}

// TypeDescendants returns the descendant types of the given type id,
// flattened depth-first with each parent preceding its children. depth
// bounds the traversal; pass -1 or 0 for unbounded.
func (r *Repository) TypeDescendants(ctx context.Context, typeID string, depth int, opts ...RequestOption) ([]*ObjectType, error) {
	repoURL, err := r.RepositoryURL()
	if err != nil {
		return nil, err
	}
	all := []RequestOption{WithParam(paramSelector, selectorTypeDescendants)}
	if typeID != "" {
		all = append(all, WithParam(paramTypeID, typeID))
	}
	if depth > 0 {
		all = append(all, WithDepth(depth))
	}
	all = append(all, opts...)
	result, err := r.client.get(ctx, repoURL, all)
	if err != nil {
		return nil, err
	}
	raw, ok := result.([]any)
	if !ok {
		return nil, opError("GetTypeDescendants", ErrInvariant, "typeDescendants response is not a list")
	}
	return parseTypeTree(r.client, r, raw)
}

// CreateDocumentOptions carries the optional pieces of document creation.
type CreateDocumentOptions struct {
	// Properties are additional CMIS properties. cmis:objectTypeId defaults
	// to cmis:document when absent.
	Properties map[string]any

	// Content and ContentType attach an initial content stream.
	Content     io.Reader
	ContentType string
}

// CreateDocument creates a document under the given parent folder. A nil
// parent fails before any request is sent: with ErrInvalidArgument when
// the repository requires filing, and with ErrNotSupported when it allows
// unfiled objects (unfiled creation is not implemented).
func (r *Repository) CreateDocument(ctx context.Context, name string, parent *Folder, opts CreateDocumentOptions) (*Document, error) {
	if parent == nil {
		if r.unfilingCapable() {
			return nil, opError("CreateDocument", ErrNotSupported, "unfiled document creation is not implemented")
		}
		return nil, opError("CreateDocument", ErrInvalidArgument, "repository requires a parent folder")
	}
	parentID, err := parent.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := r.RootFolderURL()
	if err != nil {
		return nil, err
	}

	props := map[string]any{}
	for k, v := range opts.Properties {
		props[k] = v
	}
	typeID := "cmis:document"
	if v, ok := props["cmis:objectTypeId"]; ok {
		typeID = fmt.Sprintf("%v", v)
		delete(props, "cmis:objectTypeId")
	}

	form := newForm(actionCreateDocument).
		set(paramObjectID, parentID).
		set("propertyId[0]", "cmis:name").
		set("propertyValue[0]", name).
		set("propertyId[1]", "cmis:objectTypeId").
		set("propertyValue[1]", typeID)
	form.setProperties(props, 2)
	if opts.Content != nil {
		form.withContent(opts.Content, opts.ContentType)
	}

	result, err := r.client.post(ctx, rootURL, form)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("CreateDocument", ErrInvariant, "createDocument returned no object")
	}
	return &Document{Object: *newObject(r.client, r, "", data)}, nil
}

// CreateDocumentFromString creates a document whose content is the given
// string.
func (r *Repository) CreateDocumentFromString(ctx context.Context, name string, parent *Folder, content, contentType string, properties map[string]any) (*Document, error) {
	return r.CreateDocument(ctx, name, parent, CreateDocumentOptions{
		Properties:  properties,
		Content:     strings.NewReader(content),
		ContentType: contentType,
	})
}

// CreateFolder creates a folder under the given parent.
func (r *Repository) CreateFolder(ctx context.Context, parent *Folder, name string, properties map[string]any) (*Folder, error) {
	if parent == nil {
		return nil, opError("CreateFolder", ErrInvalidArgument, "a parent folder is required")
	}
	return parent.CreateFolder(ctx, name, properties)
}

// CreateRelationship creates a relationship of the given type between the
// source and target objects.
func (r *Repository) CreateRelationship(ctx context.Context, source, target CmisObject, relTypeID string) (CmisObject, error) {
	return source.base().CreateRelationship(ctx, target, relTypeID)
}

// optionFields renders request options as form fields for operations that
// POST their parameters.
func optionFields(opts []RequestOption) []formField {
	params := applyOptions(nil, opts)
	var fields []formField
	for _, key := range sortedParamKeys(params) {
		for _, v := range params[key] {
			fields = append(fields, formField{name: key, value: v})
		}
	}
	return fields
}
