package example

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crewflow/model/schema"
)

func TestTool(t *testing.T) {
	exampleTool, err := New()
	require.NoError(t, err)
	assert.Equal(t, Name, exampleTool.Name())
	assert.ElementsMatch(t, []string{"argument_1", "argument_2"}, schema.Required(exampleTool.Schema()))

	out, err := exampleTool.Call(context.Background(), json.RawMessage(`{"argument_1":"financial report","argument_2":"short term"}`))
	require.NoError(t, err)
	assert.Equal(t, "Organize the information returned by the internal methods: internal method 1 internal method 2", out)

	_, err = exampleTool.Call(context.Background(), json.RawMessage(`{"argument_1":"financial report"}`))
	assert.Error(t, err)
}
