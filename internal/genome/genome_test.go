package genome

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseFields() Fields {
	return Fields{
		Rubric:        "You are a helpful assistant.",
		CoT:           false,
		Temp:          0.7,
		MaxTokens:     512,
		RetrieverTopK: 5,
		UseConsensus:  false,
		ModelKey:      "gpt-small",
	}
}

func TestNew_ValidatesRanges(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(f Fields) Fields
		wantErr bool
	}{
		{"valid", func(f Fields) Fields { return f }, false},
		{"temp too low", func(f Fields) Fields { f.Temp = -0.1; return f }, true},
		{"temp too high", func(f Fields) Fields { f.Temp = 2.1; return f }, true},
		{"temp boundary zero", func(f Fields) Fields { f.Temp = 0.0; return f }, false},
		{"temp boundary two", func(f Fields) Fields { f.Temp = 2.0; return f }, false},
		{"max_tokens zero", func(f Fields) Fields { f.MaxTokens = 0; return f }, true},
		{"max_tokens one", func(f Fields) Fields { f.MaxTokens = 1; return f }, false},
		{"max_tokens too high", func(f Fields) Fields { f.MaxTokens = 8193; return f }, true},
		{"retriever_topk negative", func(f Fields) Fields { f.RetrieverTopK = -1; return f }, true},
		{"retriever_topk zero disables retrieval", func(f Fields) Fields { f.RetrieverTopK = 0; return f }, false},
		{"retriever_topk too high", func(f Fields) Fields { f.RetrieverTopK = 51; return f }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.mutate(baseFields()), 0)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestID_StableAcrossJSONRoundTrip(t *testing.T) {
	g, err := New(baseFields(), 3)
	require.NoError(t, err)
	wantID := g.ID()

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var g2 Genome
	require.NoError(t, json.Unmarshal(data, &g2))

	assert.Equal(t, wantID, g2.ID())
	assert.True(t, g.Equal(g2))
}

func TestID_IgnoresGeneration(t *testing.T) {
	g0, err := New(baseFields(), 0)
	require.NoError(t, err)
	g7 := g0.WithGeneration(7)

	assert.Equal(t, g0.ID(), g7.ID())
	assert.True(t, g0.Equal(g7))
	assert.NotEqual(t, g0.Generation, g7.Generation)
}

func TestID_DiffersOnAnyIdentityField(t *testing.T) {
	base, err := New(baseFields(), 0)
	require.NoError(t, err)

	mutations := []func(Fields) Fields{
		func(f Fields) Fields { f.Rubric += " extra"; return f },
		func(f Fields) Fields { f.CoT = !f.CoT; return f },
		func(f Fields) Fields { f.Temp += 0.1; return f },
		func(f Fields) Fields { f.MaxTokens++; return f },
		func(f Fields) Fields { f.RetrieverTopK++; return f },
		func(f Fields) Fields { f.UseConsensus = !f.UseConsensus; return f },
		func(f Fields) Fields { f.ModelKey += "-v2"; return f },
	}
	for i, mutate := range mutations {
		mutated, err := New(mutate(baseFields()), 0)
		require.NoError(t, err)
		assert.NotEqual(t, base.ID(), mutated.ID(), "mutation #%d should change genome_id", i)
	}
}

func TestID_ToleratesFloatingPointNoise(t *testing.T) {
	f1 := baseFields()
	f1.Temp = 0.7000001
	f2 := baseFields()
	f2.Temp = 0.6999999

	g1, err := New(f1, 0)
	require.NoError(t, err)
	g2, err := New(f2, 0)
	require.NoError(t, err)

	assert.Equal(t, g1.ID(), g2.ID(), "sub-1e-6 differences must normalize to the same id")
}
