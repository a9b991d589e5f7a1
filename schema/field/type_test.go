package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/shapegen/schema/field"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		kind field.Kind
		typ  field.Type
	}{
		{"String", field.KindPrimitive, field.TypeString},
		{"  number ", field.KindPrimitive, field.TypeNumber},
		{"Bool", field.KindPrimitive, field.TypeBoolean},
		{"Schema.Types.ObjectId", field.KindPrimitive, field.TypeObjectID},
		{"mongoose.Schema.Types.Decimal128", field.KindPrimitive, field.TypeDecimal128},
		{"mongoose.Types.Buffer", field.KindPrimitive, field.TypeBuffer},
		{"Types.Date", field.KindPrimitive, field.TypeDate},
		{"Object", field.KindPrimitive, field.TypeMixed},
		{"Map", field.KindMap, field.TypeMixed},
		{"Array", field.KindArray, field.TypeMixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, typ, ok := field.Lookup(tt.name)
			assert.True(t, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.typ, typ)
		})
	}

	for _, name := range []string{"", "UUID", "Schema.Types.", "mongoose.Types.Point"} {
		_, _, ok := field.Lookup(name)
		assert.False(t, ok, name)
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, "embedded-object", field.KindEmbedded.String())
	assert.Equal(t, "discriminated-union", field.KindUnion.String())
	assert.Equal(t, "kind(42)", field.Kind(42).String())
	assert.True(t, field.KindArray.Container())
	assert.True(t, field.KindMap.Container())
	assert.False(t, field.KindReference.Container())
	assert.True(t, field.KindSubdocument.Record())
	assert.False(t, field.KindUnion.Record())
}

func TestType(t *testing.T) {
	assert.Equal(t, "objectid", field.TypeObjectID.String())
	assert.Equal(t, "type(99)", field.Type(99).String())
	assert.True(t, field.TypeMixed.Valid())
	assert.False(t, field.TypeInvalid.Valid())
	assert.False(t, field.Type(99).Valid())
	assert.True(t, field.TypeObjectID.Identifier())
	assert.False(t, field.TypeString.Identifier())
}
