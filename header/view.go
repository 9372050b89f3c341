package header

// The three view types are cheap non-owning projections into a Store.
// They never allocate; every accessor reads directly from the store's
// buffer. Because iterators (indices) aren't stable across modifying
// operations, a view is only valid as long as its underlying store
// isn't mutated out from under it: a view holds a non-owning
// reference, and its lifetime is the caller's responsibility.

// RequestView projects the request-specific facets of a Store.
type RequestView struct{ s *Store }

// NewRequestView wraps s as a RequestView. Panics if s is not a
// request store.
func NewRequestView(s *Store) RequestView {
	if s.Kind() != KindRequest {
		panic("header: NewRequestView on a non-request store")
	}
	return RequestView{s: s}
}

func (v RequestView) Method() []byte      { return v.s.Method() }
func (v RequestView) MethodID() FieldMethod { return v.s.MethodID() }
func (v RequestView) Target() []byte      { return v.s.Target() }
func (v RequestView) Version() string     { return v.s.Version().String() }
func (v RequestView) Fields() FieldsView  { return FieldsView{s: v.s} }
func (v RequestView) Store() *Store       { return v.s }

// ResponseView projects the response-specific facets of a Store.
type ResponseView struct{ s *Store }

// NewResponseView wraps s as a ResponseView. Panics if s is not a
// response store.
func NewResponseView(s *Store) ResponseView {
	if s.Kind() != KindResponse {
		panic("header: NewResponseView on a non-response store")
	}
	return ResponseView{s: s}
}

func (v ResponseView) StatusCode() int    { return v.s.StatusCode() }
func (v ResponseView) Reason() []byte     { return v.s.Reason() }
func (v ResponseView) Version() string    { return v.s.Version().String() }
func (v ResponseView) Fields() FieldsView { return FieldsView{s: v.s} }
func (v ResponseView) Store() *Store      { return v.s }

// FieldsView projects just the field list of a Store, regardless of
// kind.
type FieldsView struct{ s *Store }

// NewFieldsView wraps any store (fields, request, or response) as a
// FieldsView.
func NewFieldsView(s *Store) FieldsView { return FieldsView{s: s} }

func (v FieldsView) Count() int       { return v.s.Count() }
func (v FieldsView) NameAt(i int) []byte  { return v.s.NameAt(i) }
func (v FieldsView) ValueAt(i int) []byte { return v.s.ValueAt(i) }
func (v FieldsView) Find(name []byte) int { return v.s.Find(name) }
func (v FieldsView) VisitAll(fn func(name, value []byte) bool) { v.s.VisitAll(fn) }
