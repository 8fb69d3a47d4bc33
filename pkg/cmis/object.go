package cmis

import (
	"context"
	"fmt"
	"net/url"
)

// BaseType is the cmis:baseTypeId discriminator identifying an object's
// fundamental kind.
type BaseType string

const (
	BaseTypeDocument     BaseType = "cmis:document"
	BaseTypeFolder       BaseType = "cmis:folder"
	BaseTypeRelationship BaseType = "cmis:relationship"
	BaseTypePolicy       BaseType = "cmis:policy"

	// BaseTypeUnknown marks an object whose discriminator was absent or
	// unrecognized, e.g. the result of a query projection that did not
	// select cmis:baseTypeId.
	BaseTypeUnknown BaseType = ""
)

// CmisObject is implemented by the generic Object and by each of its
// concrete variants (Document, Folder, Relationship, Policy). Callers
// type-switch on the concrete type when they need variant behavior.
type CmisObject interface {
	ObjectID(ctx context.Context) (string, error)
	Properties(ctx context.Context) (map[string]Value, error)
	BaseType() BaseType

	base() *Object
}

// Object is the generic CMIS object. Its raw representation is fetched
// lazily: accessors that may need a round trip take a ctx and return an
// error, so a blocking fetch is always visible at the call site. Each
// instance exclusively owns its property and allowable-action caches and
// holds non-owning references to its Repository and Client.
type Object struct {
	client *Client
	repo   *Repository

	objectID string
	data     map[string]any

	props   map[string]Value
	actions map[string]bool
}

func newObject(client *Client, repo *Repository, objectID string, data map[string]any) *Object {
	return &Object{client: client, repo: repo, objectID: objectID, data: data}
}

func (o *Object) base() *Object { return o }

// BaseType returns the object's discriminator, or BaseTypeUnknown when the
// loaded data does not carry one.
func (o *Object) BaseType() BaseType {
	return baseTypeFromData(o.data)
}

// Repository returns the repository this object belongs to.
func (o *Object) Repository() *Repository { return o.repo }

// Data returns the last-fetched raw representation, or nil when the object
// has never been loaded.
func (o *Object) Data() map[string]any { return o.data }

// Loaded reports whether raw data has ever been fetched.
func (o *Object) Loaded() bool { return o.data != nil }

// ensureLoaded fetches the object's data exactly when none has ever been
// fetched.
func (o *Object) ensureLoaded(ctx context.Context) error {
	if o.data != nil {
		return nil
	}
	return o.Reload(ctx)
}

// Reload fetches the latest representation of this object and clears the
// property and allowable-action caches. Options apply to this call only; to
// make a property filter stick across calls, put it in the client's
// DefaultParams. A reload carrying a returnVersion option also clears the
// cached object id, since the server may answer with a different version's
// identity.
func (o *Object) Reload(ctx context.Context, opts ...RequestOption) error {
	id, err := o.ObjectID(ctx)
	if err != nil {
		return err
	}
	rootURL, err := o.repo.RootFolderURL()
	if err != nil {
		return err
	}
	all := append([]RequestOption{
		WithParam(paramObjectID, id),
		WithParam(paramSelector, selectorObject),
	}, opts...)
	result, err := o.client.get(ctx, rootURL, all)
	if err != nil {
		return err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return opError("Reload", ErrInvariant, "object response is not a JSON object")
	}
	o.data = data
	o.props = nil
	o.actions = nil
	if hasOption(opts, "returnVersion") {
		o.objectID = ""
	}
	return nil
}

// ObjectID returns the object's identifier, loading the object first when
// neither an id nor data is present. Once resolved the id never changes,
// except through a version-selector reload which clears it.
func (o *Object) ObjectID(ctx context.Context) (string, error) {
	if o.objectID != "" {
		return o.objectID, nil
	}
	if o.data == nil {
		return "", opError("ObjectID", ErrInvalidArgument, "object has neither an id nor loaded data")
	}
	props, err := o.Properties(ctx)
	if err != nil {
		return "", err
	}
	id, ok := props["cmis:objectId"].ID()
	if !ok {
		return "", opError("ObjectID", ErrInvariant, "loaded object data lacks cmis:objectId")
	}
	o.objectID = id
	return id, nil
}

// Properties returns the object's typed property map, keyed by property id.
// The map is parsed once per loaded representation and memoized; Reload
// clears the memo. Multi-valued raw properties always coerce to ordered
// multi-valued Values.
func (o *Object) Properties(ctx context.Context) (map[string]Value, error) {
	if o.props != nil {
		return o.props, nil
	}
	if err := o.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	raw, ok := o.data["properties"].(map[string]any)
	if !ok {
		return nil, opError("Properties", ErrInvariant, "object data lacks a properties member")
	}
	props, err := parseProperties(raw)
	if err != nil {
		return nil, opError("Properties", ErrRuntime, err.Error())
	}
	o.props = props
	return o.props, nil
}

// Name returns the cmis:name property.
func (o *Object) Name(ctx context.Context) (string, error) {
	props, err := o.Properties(ctx)
	if err != nil {
		return "", err
	}
	name, _ := props["cmis:name"].String()
	return name, nil
}

// AllowableActions returns the server-computed action map for this object.
// When the cache is empty the object is reloaded with an explicit
// includeAllowableActions request; a response without the allowableActions
// member after that is a contract violation, not a recoverable error.
func (o *Object) AllowableActions(ctx context.Context) (map[string]bool, error) {
	if len(o.actions) > 0 {
		return o.actions, nil
	}
	if err := o.Reload(ctx, WithAllowableActions()); err != nil {
		return nil, err
	}
	raw, ok := o.data["allowableActions"].(map[string]any)
	if !ok {
		return nil, opError("AllowableActions", ErrInvariant,
			"response lacks allowableActions after includeAllowableActions was requested")
	}
	actions := make(map[string]bool, len(raw))
	for name, v := range raw {
		b, _ := v.(bool)
		actions[name] = b
	}
	o.actions = actions
	return o.actions, nil
}

// UpdateProperties updates the given properties on the server and replaces
// this object's raw representation with the response.
func (o *Object) UpdateProperties(ctx context.Context, props map[string]any) error {
	id, err := o.ObjectID(ctx)
	if err != nil {
		return err
	}
	rootURL, err := o.repo.RootFolderURL()
	if err != nil {
		return err
	}
	form := newForm(actionUpdate).set(paramObjectID, id)
	form.setProperties(props, 0)
	result, err := o.client.post(ctx, rootURL, form)
	if err != nil {
		return err
	}
	if data, ok := result.(map[string]any); ok {
		o.data = data
		o.props = nil
		o.actions = nil
	}
	return nil
}

// Move moves this object from the source folder to the target folder.
func (o *Object) Move(ctx context.Context, source, target *Folder) error {
	id, err := o.ObjectID(ctx)
	if err != nil {
		return err
	}
	sourceID, err := source.ObjectID(ctx)
	if err != nil {
		return err
	}
	targetID, err := target.ObjectID(ctx)
	if err != nil {
		return err
	}
	rootURL, err := o.repo.RootFolderURL()
	if err != nil {
		return err
	}
	form := newForm(actionMove).
		set(paramObjectID, id).
		set("sourceFolderId", sourceID).
		set("targetFolderId", targetID)
	_, err = o.client.post(ctx, rootURL, form)
	return err
}

// Delete deletes this object from the repository. For a folder with
// children the server decides whether to refuse; use Folder.DeleteTree to
// remove a subtree.
func (o *Object) Delete(ctx context.Context, allVersions bool) error {
	id, err := o.ObjectID(ctx)
	if err != nil {
		return err
	}
	rootURL, err := o.repo.RootFolderURL()
	if err != nil {
		return err
	}
	form := newForm(actionDelete).set(paramObjectID, id)
	if allVersions {
		form.set("allVersions", "true")
	}
	_, err = o.client.post(ctx, rootURL, form)
	return err
}

// ObjectParents returns the object's parents. The canGetObjectParents
// allowable action gates the call: when the server forbids it, no request
// is issued.
func (o *Object) ObjectParents(ctx context.Context, opts ...RequestOption) (*ResultSet, error) {
	actions, err := o.AllowableActions(ctx)
	if err != nil {
		return nil, err
	}
	if !actions["canGetObjectParents"] {
		return nil, opError("ObjectParents", ErrNotSupported, "object does not allow getObjectParents")
	}
	id, err := o.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := o.repo.RootFolderURL()
	if err != nil {
		return nil, err
	}
	all := append([]RequestOption{
		WithParam(paramObjectID, id),
		WithParam(paramSelector, selectorParents),
	}, opts...)
	result, err := o.client.get(ctx, rootURL, all)
	if err != nil {
		return nil, err
	}
	// the parents response is a bare list of wrapped objects
	return newResultSet(o.client, o.repo, map[string]any{"objects": result}, childrenSerializer{}), nil
}

// Relationships returns the relationships whose source is this object.
func (o *Object) Relationships(ctx context.Context, opts ...RequestOption) (*ResultSet, error) {
	id, err := o.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := o.repo.RootFolderURL()
	if err != nil {
		return nil, err
	}
	all := append([]RequestOption{
		WithParam(paramObjectID, id),
		WithParam(paramSelector, selectorRelationships),
	}, opts...)
	result, err := o.client.get(ctx, rootURL, all)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("Relationships", ErrInvariant, "relationships response is not a JSON object")
	}
	return newResultSet(o.client, o.repo, data, objectListSerializer{}), nil
}

// CreateRelationship creates a relationship of the given type from this
// object to the target and returns the new specialized object.
func (o *Object) CreateRelationship(ctx context.Context, target CmisObject, relTypeID string) (CmisObject, error) {
	actions, err := o.AllowableActions(ctx)
	if err != nil {
		return nil, err
	}
	if !actions["canCreateRelationship"] {
		return nil, opError("CreateRelationship", ErrNotSupported, "object does not allow createRelationship")
	}
	sourceID, err := o.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	targetID, err := target.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	repoURL, err := o.repo.RepositoryURL()
	if err != nil {
		return nil, err
	}
	form := newForm(actionCreateRelationship)
	form.setProperties(map[string]any{
		"cmis:sourceId":     sourceID,
		"cmis:targetId":     targetID,
		"cmis:objectTypeId": relTypeID,
	}, 0)
	result, err := o.client.post(ctx, repoURL, form)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("CreateRelationship", ErrInvariant, "createRelationship returned no object")
	}
	return Specialize(newObject(o.client, o.repo, "", data)), nil
}

// ACL fetches the object's access control list. The repository's ACL
// capability must be discover or manage; otherwise the call fails fast
// without a request.
func (o *Object) ACL(ctx context.Context) (*ACL, error) {
	if !o.repo.aclCapable() {
		return nil, opError("GetACL", ErrNotSupported, "repository does not support ACLs")
	}
	id, err := o.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := o.repo.RootFolderURL()
	if err != nil {
		return nil, err
	}
	result, err := o.client.get(ctx, rootURL, []RequestOption{
		WithParam(paramObjectID, id),
		WithParam(paramSelector, selectorObject),
		WithACL(),
	})
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("GetACL", ErrInvariant, "object response is not a JSON object")
	}
	aclData, ok := data["acl"].(map[string]any)
	if !ok {
		return nil, opError("GetACL", ErrInvariant, "response lacks acl after includeACL was requested")
	}
	return parseACL(aclData)
}

// ApplyACL sends the ACL's computed delta to the server. The repository's
// ACL capability must be manage. The server's resulting ACL is returned.
func (o *Object) ApplyACL(ctx context.Context, acl *ACL) (*ACL, error) {
	if !o.repo.aclManageable() {
		return nil, opError("ApplyACL", ErrNotSupported, "repository ACL capability is not manage")
	}
	if acl == nil {
		return nil, opError("ApplyACL", ErrInvalidArgument, "nil ACL")
	}
	id, err := o.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := o.repo.RootFolderURL()
	if err != nil {
		return nil, err
	}
	form := newForm(actionApplyACL).set(paramObjectID, id)
	for i, ace := range acl.AddedACEs() {
		form.set(fmt.Sprintf("addACEPrincipal[%d]", i), ace.PrincipalID)
		for j, perm := range ace.Permissions {
			form.set(fmt.Sprintf("addACEPermission[%d][%d]", i, j), perm)
		}
	}
	for i, ace := range acl.RemovedACEs() {
		form.set(fmt.Sprintf("removeACEPrincipal[%d]", i), ace.PrincipalID)
		for j, perm := range ace.Permissions {
			form.set(fmt.Sprintf("removeACEPermission[%d][%d]", i, j), perm)
		}
	}
	result, err := o.client.post(ctx, rootURL, form)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("ApplyACL", ErrInvariant, "applyACL returned no ACL")
	}
	return parseACL(data)
}

// baseTypeFromData reads the discriminator out of a raw object
// representation without triggering any fetch.
func baseTypeFromData(data map[string]any) BaseType {
	if data == nil {
		return BaseTypeUnknown
	}
	props, ok := data["properties"].(map[string]any)
	if !ok {
		return BaseTypeUnknown
	}
	entry, ok := props["cmis:baseTypeId"].(map[string]any)
	if !ok {
		return BaseTypeUnknown
	}
	value, _ := entry["value"].(string)
	switch BaseType(value) {
	case BaseTypeDocument, BaseTypeFolder, BaseTypeRelationship, BaseTypePolicy:
		return BaseType(value)
	}
	return BaseTypeUnknown
}

// escapePath URL-escapes each segment of a repository path while keeping
// the separators.
func escapePath(path string) string {
	return (&url.URL{Path: path}).EscapedPath()
}
