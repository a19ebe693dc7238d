package registry

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is the operation-completed marker of a write. It carries
// attributes only; the host turns them into events.
type Response struct {
	Attributes []Attribute `json:"attributes"`
}

func NewResponse() Response {
	return Response{Attributes: []Attribute{}}
}

func (r Response) AddAttribute(key, value string) Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// Attribute returns the first value stored under key.
func (r Response) Attribute(key string) (string, bool) {
	for _, attr := range r.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}
