package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHost(t *testing.T) {
	tests := []struct {
		host  string
		valid bool
	}{
		{host: "127.0.0.1", valid: true},
		{host: "::1", valid: true},
		{host: "localhost", valid: true},
		{host: "db.example.com", valid: true},
		{host: "/var/run/postgresql", valid: true},
		{host: "", valid: false},
		{host: "db..example.com", valid: false},
		{host: "db example", valid: false},
		{host: "-db.example.com", valid: false},
	}

	for _, test := range tests {
		t.Run(test.host, func(t *testing.T) {
			err := ValidateHost(test.host)
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
