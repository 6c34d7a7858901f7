package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCodeChallenge(t *testing.T) {
	tests := []struct {
		name     string
		verifier string
		method   string
		want     string
	}{
		{
			// RFC 7636 appendix B reference vector
			name:     "s256 reference vector",
			verifier: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk",
			method:   MethodS256,
			want:     "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		},
		{
			name:     "plain is identity",
			verifier: "my-verifier",
			method:   MethodPlain,
			want:     "my-verifier",
		},
		{
			name:     "unknown method falls back to s256",
			verifier: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk",
			method:   "S512",
			want:     "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		},
		{
			name:     "empty method falls back to s256",
			verifier: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk",
			method:   "",
			want:     "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeCodeChallenge(tt.verifier, tt.method))
		})
	}
}

func TestVerifyCodeChallenge(t *testing.T) {
	challenge := ComputeCodeChallenge("verifier-abc", MethodS256)

	assert.True(t, VerifyCodeChallenge("verifier-abc", challenge, MethodS256))
	assert.False(t, VerifyCodeChallenge("verifier-xyz", challenge, MethodS256))
	assert.False(t, VerifyCodeChallenge("verifier-abc", challenge, MethodPlain))
}
