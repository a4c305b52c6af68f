package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acady/wayfarer/backend/internal/domain"
)

func TestParseCategory(t *testing.T) {
	assert.Equal(t, domain.CategoryTransport, domain.ParseCategory("transport"))
	assert.Equal(t, domain.CategoryFood, domain.ParseCategory("food"))
	assert.Equal(t, domain.CategoryActivity, domain.ParseCategory("activity"))
	assert.Equal(t, domain.CategoryLodging, domain.ParseCategory("lodging"))

	// Anything the extraction model invents falls back to the generic bucket.
	assert.Equal(t, domain.CategoryActivity, domain.ParseCategory("flight"))
	assert.Equal(t, domain.CategoryActivity, domain.ParseCategory(""))
	assert.Equal(t, domain.CategoryActivity, domain.ParseCategory("Lodging"))
}

func TestOptional_FieldPresence(t *testing.T) {
	var body struct {
		Title domain.Optional[string] `json:"title"`
		Notes domain.Optional[string] `json:"notes"`
		Count domain.Optional[int]    `json:"count"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"title":"Dinner","notes":null}`), &body))

	assert.True(t, body.Title.Set)
	assert.True(t, body.Title.Valid)
	assert.Equal(t, "Dinner", body.Title.Value)

	assert.True(t, body.Notes.Set)
	assert.False(t, body.Notes.Valid)

	assert.False(t, body.Count.Set)
}
