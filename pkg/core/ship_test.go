package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColors_JSONShape(t *testing.T) {
	line, err := json.Marshal(ChartDataset{Label: "Wind", BackgroundColor: Colors{"#6366f1"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"Wind","data":null,"backgroundColor":"#6366f1"}`, string(line))

	pie, err := json.Marshal(ChartDataset{Label: "Cargo", Data: []float64{1, 2}, BackgroundColor: Colors{"#a", "#b"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"Cargo","data":[1,2],"backgroundColor":["#a","#b"]}`, string(pie))

	bare, err := json.Marshal(ChartDataset{Label: "Fan"})
	require.NoError(t, err)
	assert.NotContains(t, string(bare), "backgroundColor")
}

func TestColors_DecodesBothShapes(t *testing.T) {
	var d ChartDataset
	require.NoError(t, json.Unmarshal([]byte(`{"backgroundColor":"#a"}`), &d))
	assert.Equal(t, Colors{"#a"}, d.BackgroundColor)

	require.NoError(t, json.Unmarshal([]byte(`{"backgroundColor":["#a","#b"]}`), &d))
	assert.Equal(t, Colors{"#a", "#b"}, d.BackgroundColor)

	assert.Error(t, json.Unmarshal([]byte(`{"backgroundColor":7}`), &d))
}
