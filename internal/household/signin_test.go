package household

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpRestrictedToFamily(t *testing.T) {
	store := newTestStore(t, nil)

	_, err := store.SignUp("Stranger", "stranger@example.com", "hunter2")
	assert.ErrorIs(t, err, ErrRestricted)
}

func TestSignUpAndSignInWithCredentials(t *testing.T) {
	pub := &capturePublisher{}
	store := newTestStore(t, pub)

	id, err := store.SignUp("Sheldon", " Sheldon@Example.COM ", "secret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, []string{KindMemberAdd}, pub.kinds())

	// Email normalized to lower case, credential hashed.
	var member Member
	for _, m := range store.Snapshot().Members {
		if m.ID == id {
			member = m
		}
	}
	assert.Equal(t, "sheldon@example.com", member.Email)
	assert.Equal(t, RoleTeen, member.Role)
	assert.False(t, member.Credential.IsZero())
	assert.NotContains(t, member.Credential.Hash, "secret-pass")

	require.NoError(t, store.SignInWithCredentials("SHELDON@example.com", "secret-pass"))
	assert.Equal(t, id, store.CurrentMemberID())

	assert.ErrorIs(t, store.SignInWithCredentials("sheldon@example.com", "wrong"), ErrInvalidPassword)
	assert.ErrorIs(t, store.SignInWithCredentials("nobody@example.com", "secret-pass"), ErrAccountNotFound)
}

func TestSignUpDuplicateEmailAndName(t *testing.T) {
	store := newTestStore(t, nil)

	_, err := store.SignUp("Sheldon", "sheldon@example.com", "pw")
	require.NoError(t, err)

	_, err = store.SignUp("Smith", "sheldon@example.com", "pw")
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = store.SignUp("Sheldon", "sheldon2@example.com", "pw")
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestQuickSignInAndOut(t *testing.T) {
	store := newTestStore(t, nil)
	members := store.Snapshot().Members

	require.NoError(t, store.SignIn(members[2].ID))
	assert.Equal(t, members[2].ID, store.CurrentMemberID())

	current, ok := store.CurrentMember()
	require.True(t, ok)
	assert.Equal(t, "Mary (Mother)", current.Name)

	store.SignOut()
	assert.Empty(t, store.CurrentMemberID())
	_, ok = store.CurrentMember()
	assert.False(t, ok)

	assert.ErrorIs(t, store.SignIn("missing"), ErrMemberNotFound)
}

func TestRoleForName(t *testing.T) {
	assert.Equal(t, RoleTeen, RoleForName("Sheldon"))
	assert.Equal(t, RoleChild, RoleForName("Sidney"))
	assert.Equal(t, RoleAdult, RoleForName("Smith"))
}
