package cmis

// Policy is the policy variant of Object. Beyond the discriminator it
// carries no extra behavior; policy application is not part of the browser
// binding surface this client implements.
type Policy struct {
	Object
}

// BaseType always reports cmis:policy for a Policy.
func (p *Policy) BaseType() BaseType { return BaseTypePolicy }
