package signature

import (
	"bytes"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSigner(t *testing.T) (*openpgp.Entity, []byte) {
	t.Helper()
	entity, err := openpgp.NewEntity("Release Bot", "", "release@example.com", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(w))
	require.NoError(t, w.Close())
	return entity, buf.Bytes()
}

func sign(t *testing.T, entity *openpgp.Entity, content []byte) []byte {
	t.Helper()
	var sig bytes.Buffer
	require.NoError(t, openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(content), nil))
	return sig.Bytes()
}

func TestVerify(t *testing.T) {
	entity, pub := newSigner(t)
	v, err := NewVerifier(bytes.NewReader(pub))
	require.NoError(t, err)

	content := []byte("pacaptr release archive")
	sig := sign(t, entity, content)

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, v.Verify(content, sig))
	})

	t.Run("tampered content", func(t *testing.T) {
		err := v.Verify([]byte("pacaptr release archivE"), sig)
		assert.ErrorIs(t, err, errors.ErrIntegrity)
	})

	t.Run("foreign key", func(t *testing.T) {
		other, _ := newSigner(t)
		err := v.Verify(content, sign(t, other, content))
		assert.ErrorIs(t, err, errors.ErrIntegrity)
	})

	t.Run("garbage signature", func(t *testing.T) {
		err := v.Verify(content, []byte("not a signature"))
		assert.ErrorIs(t, err, errors.ErrIntegrity)
	})
}

func TestNewVerifier_Invalid(t *testing.T) {
	_, err := NewVerifier(bytes.NewReader([]byte("no keys here")))
	assert.Error(t, err)

	_, err = LoadVerifier("/nonexistent/keyring.asc")
	assert.Error(t, err)
}
