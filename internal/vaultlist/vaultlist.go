// Package vaultlist projects vault items into display rows and renders them as a text table.
package vaultlist

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/sdk/go/vaultclient"
)

// Icon names the glyph shown next to a row.
type Icon string

const (
	IconLogin      Icon = "login"
	IconSecureNote Icon = "note"
	IconCard       Icon = "card"
	IconIdentity   Icon = "identity"
	IconUnknown    Icon = "item"
)

// Row is one display item. ID is the click target.
type Row struct {
	ID       string
	Icon     Icon
	Title    string
	Subtitle string
}

// Listing is a header plus rows in the order they were built.
type Listing struct {
	Header      string
	Rows        []Row
	OnItemClick func(id string)
}

// Render writes the header with the row count followed by one line per row.
func (l Listing) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s (%d)\n", l.Header, len(l.Rows)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range l.Rows {
		if _, err := fmt.Fprintf(tw, "[%s]\t%s\t%s\t%s\n", row.Icon, row.Title, row.Subtitle, row.ID); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Click invokes OnItemClick for a known row id and reports whether it did.
func (l Listing) Click(id string) bool {
	if l.OnItemClick == nil {
		return false
	}
	for _, row := range l.Rows {
		if row.ID == id {
			l.OnItemClick(id)
			return true
		}
	}
	return false
}

// RowsFromCiphers maps ciphers to rows one to one, keeping their order.
func RowsFromCiphers(ciphers []*vaultclient.Cipher) []Row {
	rows := make([]Row, 0, len(ciphers))
	for _, c := range ciphers {
		rows = append(rows, Row{
			ID:       c.ID,
			Icon:     iconFor(c.Type),
			Title:    c.Name,
			Subtitle: subtitleFor(c),
		})
	}
	return rows
}

func iconFor(t constants.CipherType) Icon {
	switch t {
	case constants.CipherTypeLogin:
		return IconLogin
	case constants.CipherTypeSecureNote:
		return IconSecureNote
	case constants.CipherTypeCard:
		return IconCard
	case constants.CipherTypeIdentity:
		return IconIdentity
	default:
		return IconUnknown
	}
}

func subtitleFor(c *vaultclient.Cipher) string {
	switch c.Type {
	case constants.CipherTypeLogin:
		if c.Login != nil {
			return deref(c.Login.Username)
		}
	case constants.CipherTypeCard:
		if c.Card != nil {
			return deref(c.Card.Brand)
		}
	case constants.CipherTypeIdentity:
		if c.Identity != nil {
			return strings.TrimSpace(deref(c.Identity.FirstName) + " " + deref(c.Identity.LastName))
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
