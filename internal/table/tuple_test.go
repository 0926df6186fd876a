package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema("id:int, name:string")
	require.NoError(t, err)
	assert.Equal(t, []Attribute{{Name: "id", Type: Int}, {Name: "name", Type: String}}, s.Attributes)

	for _, bad := range []string{"", "id", "id:float", ":int"} {
		_, err := ParseSchema(bad)
		assert.ErrorIs(t, err, ErrBadSchema, bad)
	}
}

func TestEncodeDecode(t *testing.T) {
	s, err := ParseSchema("id:int,name:string,age:int")
	require.NoError(t, err)

	tuple, err := s.ParseRecord([]string{"7", "ada", " 36"})
	require.NoError(t, err)
	assert.Equal(t, Tuple{int32(7), "ada", int32(36)}, tuple)
	assert.Equal(t, "(7, ada, 36)", tuple.String())

	b, err := s.Encode(tuple)
	require.NoError(t, err)

	back, err := s.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, tuple, back)
}

func TestParseRecordErrors(t *testing.T) {
	s, err := ParseSchema("id:int,name:string")
	require.NoError(t, err)

	_, err = s.ParseRecord([]string{"1"})
	assert.ErrorIs(t, err, ErrBadRecord)

	_, err = s.ParseRecord([]string{"one", "x"})
	assert.ErrorIs(t, err, ErrBadRecord)

	_, err = s.ParseRecord([]string{"99999999999", "x"})
	assert.ErrorIs(t, err, ErrBadRecord)
}

func TestDecodeWrongSchema(t *testing.T) {
	two, err := ParseSchema("id:int,name:string")
	require.NoError(t, err)
	one, err := ParseSchema("id:int")
	require.NoError(t, err)

	b, err := two.Encode(Tuple{int32(1), "x"})
	require.NoError(t, err)

	_, err = one.Decode(b)
	assert.ErrorIs(t, err, ErrBadRecord)

	_, err = two.Encode(Tuple{"1", "x"})
	assert.ErrorIs(t, err, ErrBadRecord)
}
