package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredDocIsValidJSON(t *testing.T) {
	SwaggerInfo.Host = "quotes.internal:9090"
	t.Cleanup(func() { SwaggerInfo.Host = "localhost:8080" })

	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		Host        string                     `json:"host"`
		Paths       map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "quotes.internal:9090", doc.Host)
	assert.Len(t, doc.Paths, 5)
	assert.Contains(t, doc.Definitions, "http.recordResponse")
}
