package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelCase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Physics Tutor", "physicsTutor"},
		{"Physics Tutor v2", "physicsTutorV2"},
		{"weather-reporter", "weatherReporter"},
		{"get_weather", "getWeather"},
		{"Simple", "simple"},
		{"already camelCased", "alreadyCamelCased"},
		{"  padded   name  ", "paddedName"},
		{"", ""},
		{"---", ""},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, CamelCase(c.in), "input %q", c.in)
	}
}

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36) // canonical UUID form
}
