package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ProgramID int64  `json:"programId" validate:"gt=0"`
	Currency  string `json:"currency" validate:"len=3"`
	Subdomain string `json:"subdomain" validate:"subdomain"`
	BirthDate string `json:"birthDate" validate:"pastdate"`
}

func TestIssuesUseJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Struct(sample{ProgramID: 0, Currency: "DK", Subdomain: "Acme!", BirthDate: "2999-01-01"})
	require.Error(t, err)

	issues := Issues(err)
	require.Len(t, issues, 4)

	byField := map[string]Issue{}
	for _, issue := range issues {
		byField[issue.Field] = issue
	}
	assert.Equal(t, "gt", byField["programId"].Code)
	assert.Equal(t, "len", byField["currency"].Code)
	assert.Equal(t, "subdomain", byField["subdomain"].Code)
	assert.Equal(t, "pastdate", byField["birthDate"].Code)
}

func TestValidSample(t *testing.T) {
	v := New()
	err := v.Struct(sample{ProgramID: 1, Currency: "DKK", Subdomain: "acme-club", BirthDate: "2015-04-01"})
	assert.NoError(t, err)
	assert.Nil(t, Issues(err))
}

func TestCheckWrapsIssues(t *testing.T) {
	err := Check(New(), sample{Currency: "DKK", Subdomain: "acme", BirthDate: "2015-04-01"})
	require.Error(t, err)

	verr, ok := As(err)
	require.True(t, ok)
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, "programId", verr.Issues[0].Field)
}

func TestFailf(t *testing.T) {
	verr, ok := As(Failf("No updates provided"))
	require.True(t, ok)
	assert.Equal(t, "No updates provided", verr.Error())
	assert.Empty(t, verr.Issues)
}
