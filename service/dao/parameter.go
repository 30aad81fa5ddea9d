package dao

// Parameter is a List filter: Name selects an entity attribute, Value is a
// string or a []string of accepted values.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a filter parameter
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// Attributes returns the filterable attributes of an entity
type Attributes[T any] func(t *T) map[string]string

// Matches returns true when every parameter accepts the corresponding
// attribute; unknown parameter names reject the entity.
func Matches(attributes map[string]string, parameters []*Parameter) bool {
	for _, parameter := range parameters {
		actual, ok := attributes[parameter.Name]
		if !ok {
			return false
		}
		switch expected := parameter.Value.(type) {
		case string:
			if actual != expected {
				return false
			}
		case []string:
			if !contains(expected, actual) {
				return false
			}
		}
	}
	return true
}

func contains(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
