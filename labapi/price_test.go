package labapi

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	type Test struct {
		Description   string
		Input         string
		ExpectedPrice Price
		ExpectedError bool
	}
	tests := []Test{
		{Description: "integer", Input: "12", ExpectedPrice: 1200},
		{Description: "one decimal", Input: "12.5", ExpectedPrice: 1250},
		{Description: "two decimals", Input: "12.50", ExpectedPrice: 1250},
		{Description: "comma", Input: "12,50", ExpectedPrice: 1250},
		{Description: "round half up", Input: "0.125", ExpectedPrice: 13},
		{Description: "round down", Input: "0.124", ExpectedPrice: 12},
		{Description: "leading dot", Input: ".5", ExpectedPrice: 50},
		{Description: "negative", Input: "-3.10", ExpectedPrice: -310},
		{Description: "spaces", Input: " 7 ", ExpectedPrice: 700},
		{Description: "empty", Input: "", ExpectedError: true},
		{Description: "letters", Input: "abc", ExpectedError: true},
		{Description: "two dots", Input: "1.2.3", ExpectedError: true},
		{Description: "lone dot", Input: ".", ExpectedError: true},
	}

	for _, tc := range tests {
		price, err := ParsePrice(tc.Input)
		if tc.ExpectedError {
			require.Error(t, err, tc.Description)
			continue
		}
		require.NoError(t, err, tc.Description)
		require.Equal(t, tc.ExpectedPrice, price, tc.Description)
	}
}

func TestPriceJson(t *testing.T) {
	var fromString, fromNumber, fromNull Price
	require.NoError(t, json.Unmarshal([]byte(`"25.00"`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`25.5`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`null`), &fromNull))
	require.Equal(t, Price(2500), fromString)
	require.Equal(t, Price(2550), fromNumber)
	require.Equal(t, Price(0), fromNull)

	encoded, err := json.Marshal(Price(1205))
	require.NoError(t, err)
	require.Equal(t, `"12.05"`, string(encoded))
}
