package vaultlist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/sdk/go/vaultclient"
)

func strPtr(s string) *string { return &s }

func TestRowsFromCiphers(t *testing.T) {
	ciphers := []*vaultclient.Cipher{
		{ID: "c-3", Type: constants.CipherTypeLogin, Name: "mail", Login: &vaultclient.CipherLogin{Username: strPtr("alice")}},
		{ID: "c-1", Type: constants.CipherTypeCard, Name: "visa", Card: &vaultclient.CipherCard{Brand: strPtr("Visa")}},
		{ID: "c-2", Type: constants.CipherTypeIdentity, Name: "me", Identity: &vaultclient.CipherIdentity{FirstName: strPtr("Alice"), LastName: strPtr("Liddell")}},
		{ID: "c-4", Type: constants.CipherTypeSecureNote, Name: "note"},
		{ID: "c-5", Type: constants.CipherTypeLogin, Name: "bare"},
	}

	rows := RowsFromCiphers(ciphers)

	assert.Equal(t, []Row{
		{ID: "c-3", Icon: IconLogin, Title: "mail", Subtitle: "alice"},
		{ID: "c-1", Icon: IconCard, Title: "visa", Subtitle: "Visa"},
		{ID: "c-2", Icon: IconIdentity, Title: "me", Subtitle: "Alice Liddell"},
		{ID: "c-4", Icon: IconSecureNote, Title: "note"},
		{ID: "c-5", Icon: IconLogin, Title: "bare"},
	}, rows)
}

func TestRowsFromCiphers_Empty(t *testing.T) {
	assert.Empty(t, RowsFromCiphers(nil))
}

func TestRender(t *testing.T) {
	l := Listing{
		Header: "Items",
		Rows: []Row{
			{ID: "b", Icon: IconLogin, Title: "second", Subtitle: "bob"},
			{ID: "a", Icon: IconCard, Title: "first"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, l.Render(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Items (2)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[login]"))
	assert.Contains(t, lines[1], "second")
	assert.Contains(t, lines[2], "first")
}

func TestClick(t *testing.T) {
	var clicked []string
	l := Listing{
		Rows:        []Row{{ID: "a"}, {ID: "b"}},
		OnItemClick: func(id string) { clicked = append(clicked, id) },
	}

	assert.True(t, l.Click("b"))
	assert.False(t, l.Click("missing"))
	assert.Equal(t, []string{"b"}, clicked)

	assert.False(t, Listing{Rows: []Row{{ID: "a"}}}.Click("a"))
}
