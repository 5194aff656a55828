package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styx/internal/services/identity"
	"styx/internal/store"
)

func TestGenerateAndLoad(t *testing.T) {
	svc := identity.New(store.NewIdentityFileStore(t.TempDir()))

	id, fp, err := svc.Generate("Str0ng-Passphrase!")
	require.NoError(t, err)
	assert.Len(t, fp, 20)

	got, err := svc.Load("Str0ng-Passphrase!")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	gotFP, err := svc.Fingerprint("Str0ng-Passphrase!")
	require.NoError(t, err)
	assert.Equal(t, fp, gotFP)

	_, err = svc.Load("Wr0ng-Passphrase!!")
	assert.Error(t, err)
}

func TestGenerate_RejectsWeakPassphrases(t *testing.T) {
	svc := identity.New(store.NewIdentityFileStore(t.TempDir()))

	for _, passphrase := range []string{
		"",
		"short1!A",
		"nouppercase1!aaa",
		"NOLOWERCASE1!AAA",
		"NoDigitsHere!!aa",
		"NoSymbolsHere12a",
	} {
		_, _, err := svc.Generate(passphrase)
		assert.ErrorIs(t, err, identity.ErrWeakPassphrase, "passphrase %q", passphrase)
	}
}
