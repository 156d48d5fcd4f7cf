package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultBundleKeepsInsertionOrder(t *testing.T) {
	b := NewResultBundle(ResultOK)
	b.Put(KeyPurchaseData, "{}")
	b.Put(KeyDataSignature, "sig")

	assert.Equal(t, []string{KeyResponseCode, KeyPurchaseData, KeyDataSignature}, b.Keys())

	// Overwriting a key keeps its original position.
	b.Put(KeyPurchaseData, `{"v":2}`)
	assert.Equal(t, []string{KeyResponseCode, KeyPurchaseData, KeyDataSignature}, b.Keys())
	assert.Equal(t, `{"v":2}`, b.GetString(KeyPurchaseData))
}

func TestResultBundleCodeAbsentIsAmbiguous(t *testing.T) {
	b := &ResultBundle{}
	_, ok := b.Code()
	assert.False(t, ok)

	b.SetCode(ResultItemNotOwned)
	code, ok := b.Code()
	require.True(t, ok)
	assert.Equal(t, ResultItemNotOwned, code)
}

func TestResultBundleCloneIsIndependent(t *testing.T) {
	b := NewResultBundle(ResultOK)
	b.Put(KeyPurchaseData, "{}")

	clone := b.Clone()
	clone.SetCode(ResultError)
	clone.Put(KeyDebugMessage, "boom")

	code, _ := b.Code()
	assert.Equal(t, ResultOK, code)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 3, clone.Len())
}

func TestCloneNilBundle(t *testing.T) {
	var b *ResultBundle
	assert.Nil(t, b.Clone())
}
