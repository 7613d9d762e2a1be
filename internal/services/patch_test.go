package services

import (
	"encoding/json"
	"order_manager/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalDistinguishesAbsentNullAndValue(t *testing.T) {
	var patch OrderPatch
	require.NoError(t, json.Unmarshal([]byte(`{"notes": null}`), &patch))
	assert.False(t, patch.PaymentStatus.Set)
	assert.True(t, patch.Notes.Set)
	assert.True(t, patch.Notes.Null)

	patch = OrderPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"payment_status": "paid", "notes": ""}`), &patch))
	assert.Equal(t, Some(models.PaymentPaid), patch.PaymentStatus)
	assert.True(t, patch.Notes.Set)
	assert.False(t, patch.Notes.Null)
	assert.Equal(t, "", patch.Notes.Value)
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var patch OrderPatch
	err := json.Unmarshal([]byte(`{"notes": 12}`), &patch)
	assert.Error(t, err)
}
