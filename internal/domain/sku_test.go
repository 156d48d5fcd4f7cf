package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkuTypeSupported(t *testing.T) {
	assert.True(t, SkuTypeInApp.Supported())
	assert.True(t, SkuTypeSubs.Supported())
	assert.True(t, SkuTypePlayPassSubs.Supported())
	assert.False(t, SkuType("loot_box").Supported())
	assert.False(t, SkuType("").Supported())
}

func TestBackendDocType(t *testing.T) {
	assert.Equal(t, 11, SkuTypeInApp.BackendDocType())
	assert.Equal(t, 11, SkuTypeBook.BackendDocType())
	assert.Equal(t, 15, SkuTypeSubs.BackendDocType())
	assert.Equal(t, 15, SkuTypeFirstParty.BackendDocType())
}

func TestParseDocumentID(t *testing.T) {
	id, err := ParseDocumentID("inapp:com.example.game:gems.100")
	require.NoError(t, err)
	assert.Equal(t, DocumentID{Kind: "inapp", PackageName: "com.example.game", SKU: "gems.100"}, id)
}

func TestParseDocumentIDKeepsColonsInSku(t *testing.T) {
	id, err := ParseDocumentID("subs:com.example.game:gold:monthly:v2")
	require.NoError(t, err)
	assert.Equal(t, "gold:monthly:v2", id.SKU)
}

func TestParseDocumentIDMalformed(t *testing.T) {
	_, err := ParseDocumentID("inapp:com.example.game")
	assert.Error(t, err)
}

func TestDocumentIDRoundTrip(t *testing.T) {
	id := ComposeDocumentID(SkuTypeInApp, "com.example.game", "gems.100")
	parsed, err := ParseDocumentID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}
