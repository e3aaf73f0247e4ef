package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryForVendor(t *testing.T) {
	tests := []struct {
		vendor string
		want   Category
	}{
		{"Starbucks Coffee", FoodAndDining},
		{"Uber", Transportation},
		{"UBER INDIA SYSTEMS", Transportation},
		{"Random Shop XYZ", Other},
		{"Amazon Pay", Shopping},
		{"Netflix", Entertainment},
		{"Coca Cola Depot", Other},
		{"", Other},
	}
	for _, tt := range tests {
		t.Run(tt.vendor, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryForVendor(tt.vendor))
		})
	}
}

func TestCanonicalize(t *testing.T) {
	cat, ok := Canonicalize("Food")
	assert.True(t, ok)
	assert.Equal(t, FoodAndDining, cat)

	cat, ok = Canonicalize("transportation")
	assert.True(t, ok)
	assert.Equal(t, Transportation, cat)

	cat, ok = Canonicalize("gadgets")
	assert.False(t, ok)
	assert.Equal(t, Other, cat)
}

func TestContainsWord(t *testing.T) {
	assert.True(t, ContainsWord("ola cabs", "ola"))
	assert.False(t, ContainsWord("coca cola", "ola"))
	assert.True(t, ContainsWord("paid to uber.", "uber"))
}

func TestIsImageMediaType(t *testing.T) {
	assert.True(t, IsImageMediaType("image/png"))
	assert.True(t, IsImageMediaType("IMAGE/JPEG; charset=binary"))
	assert.False(t, IsImageMediaType("application/pdf"))
	assert.False(t, IsImageMediaType(""))
}
