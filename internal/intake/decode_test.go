package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Malformed(t *testing.T) {
	for _, body := range []string{"", "{", "not json", "[1,2]", "null", `"str"`, "42"} {
		_, _, err := Decode([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedJSON, body)
	}
}

func TestDecode_Fields(t *testing.T) {
	body := `{
		"name": "Jane", "email": "j@example.com", "phone": null,
		"age": 25, "height": 170.0, "weight": 55,
		"measurements": "86-61-89", "experience": "some",
		"portfolio_urls": ["https://a.example", "https://b.example"],
		"additional_info": "more", "unknown": true
	}`
	s, vs, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.Empty(t, vs)
	assert.Equal(t, "Jane", *s.Name)
	assert.Nil(t, s.Phone)
	assert.Equal(t, 25, *s.Age)
	assert.Equal(t, 170, *s.Height)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.PortfolioURLs)
	assert.Equal(t, "more", *s.AdditionalInfo)
}

func TestDecode_TypeErrorsAreCollected(t *testing.T) {
	body := `{"name": 12, "email": "j@example.com", "age": "25", "height": 170.5, "portfolio_urls": "https://x"}`
	s, vs, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.Nil(t, s.Name)
	assert.Nil(t, s.Age)
	assert.Equal(t, []string{
		"Name must be a string",
		"Age must be a number",
		"Height must be a whole number",
		"Portfolio URLs must be a list of strings",
	}, messages(vs))

	_, vs, _ = Decode([]byte(`{"portfolio_urls": ["https://x", 3]}`))
	assert.Equal(t, []string{"Portfolio URL 2 must be a string"}, messages(vs))
}

func TestDecode_HugeNumbersStayOutOfRange(t *testing.T) {
	s, vs, err := Decode([]byte(`{"age": 1e300, "weight": -1e300}`))
	require.NoError(t, err)
	assert.Empty(t, vs)
	assert.Greater(t, *s.Age, 100)
	assert.Less(t, *s.Weight, 40)
}

func TestClientKey(t *testing.T) {
	assert.Equal(t, "203.0.113.7", ClientKey("203.0.113.7, 10.0.0.1"))
	assert.Equal(t, "203.0.113.7", ClientKey(" 203.0.113.7 "))
	assert.Equal(t, UnknownClient, ClientKey(""))
	assert.Equal(t, UnknownClient, ClientKey(" , 10.0.0.1"))
}
