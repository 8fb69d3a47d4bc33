package cmis

// Specialize promotes a generic object to the concrete variant matching its
// cmis:baseTypeId discriminator, carrying over the client and repository
// references, object id, and raw data. When the discriminator is absent or
// unrecognized (a query projection may simply not select it) the generic
// object is returned unchanged; callers get a degraded but usable value,
// not an error.
func Specialize(o *Object) CmisObject {
	switch baseTypeFromData(o.data) {
	case BaseTypeFolder:
		return &Folder{Object: *o}
	case BaseTypeDocument:
		return &Document{Object: *o}
	case BaseTypeRelationship:
		return &Relationship{Object: *o}
	case BaseTypePolicy:
		return &Policy{Object: *o}
	}
	return o
}
