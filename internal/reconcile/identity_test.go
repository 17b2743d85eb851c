package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"token at end", "LED_PILARES_0F_MAN_S1", "S1"},
		{"token mid-filename", "BSK_16909_FR_DIJON_LA-TOISON-DOR_CIRCLE_S1_FRONTAL", "S1"},
		{"no token", "NOLABEL", ""},
		{"empty", "", ""},
		{"lowercase input", "circle_s12_frontal.jpg", "S12"},
		{"multi-digit", "PANEL S105", "S105"},
		{"last match wins", "S3_OLD_REV_S7", "S7"},
		{"start of string", "S2_BANNER", "S2"},
		{"letter adjacent is not a token", "PILARES1", ""},
		{"digit adjacent is not a token", "REV2S1", ""},
		{"separator variants", "FOO-S4.jpg", "S4"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractToken(tc.input))
		})
	}
}
