package jumpseller

import (
	"testing"

	"gotest.tools/assert"
)

func TestDecodeProductsShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		ids  []int64
	}{
		{"bare array of wrapped products", `[{"product":{"id":1,"sku":"A1","name":"a"}},{"product":{"id":2,"sku":"A2"}}]`, []int64{1, 2}},
		{"bare array of plain products", `[{"id":"3","sku":"A3","price":"10.50"}]`, []int64{3}},
		{"products key", `{"products":[{"id":4,"sku":"A4"},{"product":{"id":5,"sku":"A5"}}]}`, []int64{4, 5}},
		{"single product", `{"product":{"id":6,"sku":"A6","name":"six"}}`, []int64{6}},
		{"arbitrary nesting", `{"data":{"page":1,"items":[{"id":7,"name":"seven","variants":[{"id":70,"sku":"V"}]}]}}`, []int64{7}},
		{"empty array", `[]`, nil},
		{"nothing product like", `{"message":"ok"}`, nil},
		{"entries without id are dropped", `[{"sku":"NOID"},{"id":8,"sku":"A8"}]`, []int64{8}},
	}

	for _, tc := range cases {
		products, err := DecodeProducts([]byte(tc.body))
		assert.NilError(t, err, tc.name)

		var ids []int64
		for _, p := range products {
			ids = append(ids, p.ID)
		}
		assert.DeepEqual(t, tc.ids, ids)
	}
}

func TestDecodeProductProjection(t *testing.T) {
	body := `{"product":{"id":42,"name":"Widget","sku":"ABC-1","price":1234.5,
		"fields":[
			{"field":{"id":901,"custom_field_id":12,"label":"Date","value":"01/01/23"}},
			{"id":902,"custom_field":{"id":13,"label":"Color"},"value":"red"}
		]}}`

	products, err := DecodeProducts([]byte(body))
	assert.NilError(t, err)
	assert.Equal(t, 1, len(products))

	p := products[0]
	assert.Equal(t, int64(42), p.ID)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, "ABC-1", p.SKU)
	assert.Equal(t, "1234.5", p.Price)
	assert.Equal(t, 2, len(p.Fields))
	assert.Equal(t, int64(901), p.Fields[0].ID)
	assert.Equal(t, int64(12), p.Fields[0].CustomFieldID)
	assert.Equal(t, "01/01/23", p.Fields[0].Value)
	assert.Equal(t, int64(13), p.Fields[1].CustomFieldID)
	assert.Equal(t, "Color", p.Fields[1].Label)
}

func TestDecodeProductsInvalidJSON(t *testing.T) {
	_, err := DecodeProducts([]byte("<html>"))
	assert.ErrorContains(t, err, "decode jumpseller response")
}
