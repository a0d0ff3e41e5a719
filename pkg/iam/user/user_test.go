package user

import (
	"encoding/json"
	"testing"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactValidate(t *testing.T) {
	assert.True(t, errx.IsCode(Contact{}.Validate(), ErrContactRequired))
	assert.True(t, errx.IsCode(Contact{Email: "a@b.c", Phone: "+1"}.Validate(), ErrContactAmbiguous))
	assert.True(t, errx.IsCode(Contact{Email: "nope"}.Validate(), ErrInvalidEmail))
	assert.NoError(t, Contact{Phone: "+15550100"}.Validate())
}

func TestNormalizeContact(t *testing.T) {
	c := NormalizeContact("  Ana@Example.COM ", "")
	assert.Equal(t, "ana@example.com", c.Email)
	assert.Nil(t, c.PhonePtr())
	require.NotNil(t, c.EmailPtr())
}

func TestDTOCarriesNoInternalIdentifiers(t *testing.T) {
	u := &User{PK: 7, ID: kernel.NewUserID(), Name: "Ana", PasswordHash: "x", UserType: kernel.UserTypeStaff}

	body, err := json.Marshal(u.ToDTO())
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.Contains(t, string(body), u.ID.String())
}
