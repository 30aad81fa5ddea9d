package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crewflow/model/schema"
)

type flowState struct {
	Topic   string            `json:"topic" jsonschema:"required" validate:"required"`
	Mode    string            `json:"mode,omitempty" jsonschema:"enum=fast,enum=slow"`
	Count   int               `json:"count,omitempty" validate:"gte=0"`
	Notes   []string          `json:"notes,omitempty"`
	Results map[string]string `json:"results,omitempty"`
	Journal
}

func (s flowState) Clone() flowState {
	s.Notes = append([]string(nil), s.Notes...)
	s.Results = CloneMap(s.Results)
	return s
}

func TestJournal(t *testing.T) {
	s := flowState{Topic: "x"}
	j, ok := JournalOf(&s)
	require.True(t, ok)

	trail := []string{"start", "a"}
	faults := map[string]string{"a": "boom"}
	*j = j.With(trail, faults)
	trail[0] = "mutated"
	faults["b"] = "other"

	assert.Equal(t, []string{"start", "a"}, s.Trail)
	assert.True(t, s.Visited("a"))
	assert.False(t, s.Visited("b"))
	msg, ok := s.Fault("a")
	assert.True(t, ok)
	assert.Equal(t, "boom", msg)
	assert.Equal(t, []string{"a"}, s.Degraded())

	_, ok = JournalOf(&struct{ Name string }{})
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	s := flowState{Topic: "x", Notes: []string{"a"}, Results: map[string]string{"k": "v"}}
	c := Snapshot(s)
	c.Notes[0] = "b"
	c.Results["k"] = "w"
	assert.Equal(t, "a", s.Notes[0])
	assert.Equal(t, "v", s.Results["k"])

	assert.Equal(t, 3, Snapshot(3))
}

func TestSchema_Validate(t *testing.T) {
	s, err := NewSchema[flowState]()
	require.NoError(t, err)

	testCases := []struct {
		name      string
		state     flowState
		expectErr bool
	}{
		{name: "valid", state: flowState{Topic: "x", Mode: "fast"}},
		{name: "missing topic", state: flowState{}, expectErr: true},
		{name: "bad enum", state: flowState{Topic: "x", Mode: "medium"}, expectErr: true},
		{name: "negative count", state: flowState{Topic: "x", Count: -1}, expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Validate(tc.state)
			if !tc.expectErr {
				assert.NoError(t, err)
				return
			}
			var vErr *schema.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.NotEmpty(t, vErr.Violations)
		})
	}
}

func TestSchema_RoundTrip(t *testing.T) {
	s := MustSchema[flowState]()
	original := flowState{
		Topic:   "X",
		Mode:    "slow",
		Count:   2,
		Notes:   []string{"one", "two"},
		Results: map[string]string{"a": "1"},
		Journal: Journal{Trail: []string{"start"}, Faults: map[string]string{"start": "err"}},
	}
	data, err := s.Encode(original)
	require.NoError(t, err)
	decoded, err := s.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)

	_, err = s.Decode([]byte(`{"topic":"x","unknown":1}`))
	assert.Error(t, err)
	_, err = s.Decode([]byte(`{"mode":"fast"}`))
	assert.Error(t, err)
}

func TestSchema_Document(t *testing.T) {
	s := MustSchema[flowState]()
	assert.Equal(t, []string{"topic"}, schema.Required(s.Document()))
	props := schema.Properties(s.Document())
	assert.Contains(t, props, "trail")
	assert.Contains(t, props, "faults")
	data, err := s.MarshalIndent()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"topic"`)
}
