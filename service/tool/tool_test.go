package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crewflow/model/schema"
)

type greetInput struct {
	Name  string `json:"name" jsonschema:"required"`
	Times int    `json:"times,omitempty" jsonschema:"minimum=1"`
}

func newGreet(t *testing.T) *Function[greetInput] {
	t.Helper()
	ret, err := New[greetInput]("greet", "Greets someone", func(ctx context.Context, in *greetInput) (string, error) {
		if in.Times == 0 {
			in.Times = 1
		}
		out := ""
		for i := 0; i < in.Times; i++ {
			out += "hello " + in.Name + ";"
		}
		return out, nil
	})
	require.NoError(t, err)
	return ret
}

func TestFunction_Call(t *testing.T) {
	greet := newGreet(t)
	assert.Equal(t, []string{"name"}, schema.Required(greet.Schema()))

	testCases := []struct {
		description string
		args        string
		expect      string
		expectErr   bool
	}{
		{description: "valid", args: `{"name":"Ann","times":2}`, expect: "hello Ann;hello Ann;"},
		{description: "missing required", args: `{"times":2}`, expectErr: true},
		{description: "below minimum", args: `{"name":"Ann","times":0}`, expectErr: true},
		{description: "unknown property", args: `{"name":"Ann","mood":"happy"}`, expectErr: true},
		{description: "malformed", args: `{"name":`, expectErr: true},
		{description: "empty", args: ``, expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			actual, err := greet.Call(context.Background(), json.RawMessage(tc.args))
			if tc.expectErr {
				var argErr *ArgumentError
				assert.True(t, errors.As(err, &argErr), "%v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := New[greetInput]("", "", func(ctx context.Context, in *greetInput) (string, error) { return "", nil })
	assert.Error(t, err)
	_, err = New[greetInput]("greet", "", nil)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	greet := newGreet(t)
	registry, err := NewRegistry(greet)
	require.NoError(t, err)
	assert.Error(t, registry.Register(greet))
	assert.Equal(t, []string{"greet"}, registry.Names())

	tools, err := registry.Select("greet")
	require.NoError(t, err)
	_, err = registry.Select("missing")
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))

	out, err := Invoke(context.Background(), tools, &Call{Name: "greet", Arguments: json.RawMessage(`{"name":"Bo"}`)})
	require.NoError(t, err)
	assert.Equal(t, "hello Bo;", out)
	_, err = Invoke(context.Background(), tools, &Call{Name: "other"})
	assert.True(t, errors.As(err, &notFound))

	description := Describe(tools)
	assert.Contains(t, description, "- greet: Greets someone")
	assert.Contains(t, description, `"required":["name"]`)
}
