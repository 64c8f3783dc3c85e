package signing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	payload := []byte(`{"entry":[]}`)
	header := Sign("secret", payload)

	assert.True(t, Verify("secret", payload, header))
}

func TestVerifyRejects(t *testing.T) {
	payload := []byte(`{"entry":[]}`)
	header := Sign("secret", payload)

	assert.False(t, Verify("other-secret", payload, header))
	assert.False(t, Verify("secret", []byte("tampered"), header))
	assert.False(t, Verify("secret", payload, "sha256=zzzz"))
	assert.False(t, Verify("secret", payload, "md5=abcdef"))
	assert.False(t, Verify("secret", payload, ""))
}
