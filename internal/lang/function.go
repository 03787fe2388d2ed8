package lang

// Param is one signature parameter: either the receiver (`self` in its
// various shapes) or a named, typed parameter.
type Param struct {
	// Receiver marks a `self` parameter. Type and Name are empty for
	// receivers; ByRef and Mutable capture its shape.
	Receiver bool
	Name     string
	Type     TypeRef
	// Text is the parameter type exactly as written in the source,
	// preserved for harness emission (TypeRef flattens references and
	// non-path types).
	Text    string
	ByRef   bool
	Mutable bool
}

// Signature describes a function header: identifier, ordered parameters
// and optional return type. Equal is the contract that defines "the same
// function" across two source versions.
type Signature struct {
	Ident  string
	Params []Param
	Return *TypeRef
}

// Receiver returns the receiver parameter, if the signature has one.
func (s Signature) Receiver() (Param, bool) {
	for _, p := range s.Params {
		if p.Receiver {
			return p, true
		}
	}
	return Param{}, false
}

// TypedParams returns the non-receiver parameters in order.
func (s Signature) TypedParams() []Param {
	out := make([]Param, 0, len(s.Params))
	for _, p := range s.Params {
		if !p.Receiver {
			out = append(out, p)
		}
	}
	return out
}

// Equal reports whether two signatures denote the same function: same
// identifier, same arity, parameters pairwise both-receiver or both-typed
// with equal base paths, and the same return type rule. Generic arguments
// are deliberately ignored, matching on base paths only.
func (s Signature) Equal(other Signature) bool {
	if s.Ident != other.Ident || len(s.Params) != len(other.Params) {
		return false
	}
	for i := range s.Params {
		a, b := s.Params[i], other.Params[i]
		if a.Receiver != b.Receiver {
			return false
		}
		if !a.Receiver && !a.Type.Base.Equal(b.Type.Base) {
			return false
		}
	}
	if (s.Return == nil) != (other.Return == nil) {
		return false
	}
	if s.Return != nil && !s.Return.Base.Equal(other.Return.Base) {
		return false
	}
	return true
}

// FunctionRecord is one function as declared in a single source unit.
// Records are produced at load time and never modified.
type FunctionRecord struct {
	Name  QualifiedName
	Sig   Signature
	Owner *TypeRef
	// Trait is the capability the owning impl block implements, if any.
	Trait *QualifiedName
	Body  string
}

// Ident returns the local (unqualified) identifier.
func (f FunctionRecord) Ident() string {
	return f.Sig.Ident
}

func (f FunctionRecord) String() string {
	return f.Name.String()
}

// MatchedFunction is a function present in both source versions with an
// identical signature. The metadata may be rewritten exactly once by alias
// alignment; afterwards the value only moves between verification buckets.
type MatchedFunction struct {
	Name    QualifiedName
	Sig     Signature
	Owner   *TypeRef
	Trait   *QualifiedName
	BodyOld string
	BodyNew string
}

// Match pairs a record from the old source with the matching body from the
// new source.
func Match(old FunctionRecord, bodyNew string) *MatchedFunction {
	return &MatchedFunction{
		Name:    old.Name,
		Sig:     old.Sig,
		Owner:   old.Owner,
		Trait:   old.Trait,
		BodyOld: old.Body,
		BodyNew: bodyNew,
	}
}

func (m *MatchedFunction) Ident() string {
	return m.Sig.Ident
}

func (m *MatchedFunction) String() string {
	return m.Name.String()
}

// InstantiatedAlias records a type alias that instantiates a generic type
// with concrete arguments, e.g. `type FB = Foo<Bar>`.
type InstantiatedAlias struct {
	Alias    QualifiedName
	Concrete TypeRef
}

// Precondition names a function whose inputs are constrained by a
// user-supplied predicate. Formal backends assume the predicate before
// comparing; the name is aligned through the same alias rewrite as
// matched functions.
type Precondition struct {
	Name   QualifiedName
	Method bool
	Owner  *TypeRef
}

// CheckIdent is the identifier of the predicate function emitted alongside
// the harness for this precondition.
func (p Precondition) CheckIdent() string {
	return "precond_" + p.Name.Last()
}
