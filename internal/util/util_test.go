package util

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLog(t *testing.T) {
	assert.Equal(t, "kidinjected", SanitizeLog("kid\ninjected\r"))
}

func TestResponseClasses(t *testing.T) {
	assert.True(t, Is2xxResponse(http.StatusNoContent))
	assert.False(t, Is2xxResponse(http.StatusNotFound))
	assert.True(t, Is4xxResponse(http.StatusNotFound))
	assert.False(t, Is4xxResponse(http.StatusBadGateway))
}
