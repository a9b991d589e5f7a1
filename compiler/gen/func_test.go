package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPascal(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"friends", "Friends"},
		{"subdocWithoutDefault", "SubdocWithoutDefault"},
		{"first_name", "FirstName"},
		{"first-name", "FirstName"},
		{"first name", "FirstName"},
		{"city.coordinates", "CityCoordinates"},
		{"URL", "URL"},
		{"a+b", "Ab"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, pascal(tt.input))
		})
	}
}

func TestSingular(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"UserFriends", "UserFriend"},
		{"UserCategories", "UserCategory"},
		{"UserAddresses", "UserAddress"},
		{"UserURLs", "UserURL"},
		{"UserStatus", "UserStatus"},
		{"UserSeries", "UserSeries"},
		{"UserNews", "UserNews"},
		{"UserAlias", "UserAlias"},
		{"UserCitySubdocWithoutDefault", "UserCitySubdocWithoutDefault"},
		{"User", "User"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, singular(tt.input))
		})
	}
}
