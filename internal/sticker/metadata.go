package sticker

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/google/uuid"
)

// PackMetadata is the sticker-pack descriptor embedded into the WebP
// container. WhatsApp reads it from an XMP packet under the
// http://whatsapp.com/stickers/ namespace.
type PackMetadata struct {
	PackID    string
	PackName  string
	Publisher string
	Animated  bool
}

// NewPackMetadata builds a descriptor with a freshly generated pack id.
// Every conversion gets its own id, even for repeated requests with the same
// pack name, so each sticker lands in its own pack on the recipient's side.
func NewPackMetadata(packName, publisher string) PackMetadata {
	return PackMetadata{
		PackID:    uuid.NewString(),
		PackName:  packName,
		Publisher: publisher,
	}
}

// XMP renders the metadata packet in the exact shape webpmux expects:
// an xpacket wrapper around x:xmpmeta/rdf:RDF with the wa: fields.
func (m PackMetadata) XMP() []byte {
	animated := "0"
	if m.Animated {
		animated = "1"
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>`)
	buf.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/" x:xmptk="Adobe XMP Core 5.1.2">`)
	buf.WriteString(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">`)
	buf.WriteString(`<rdf:Description rdf:about="" xmlns:wa="http://whatsapp.com/stickers/">`)
	fmt.Fprintf(&buf, "<wa:pack-id>%s</wa:pack-id>", xmlEscape(m.PackID))
	fmt.Fprintf(&buf, "<wa:pack-name>%s</wa:pack-name>", xmlEscape(m.PackName))
	fmt.Fprintf(&buf, "<wa:publisher>%s</wa:publisher>", xmlEscape(m.Publisher))
	fmt.Fprintf(&buf, "<wa:is-animated>%s</wa:is-animated>", animated)
	buf.WriteString(`</rdf:Description>`)
	buf.WriteString(`</rdf:RDF>`)
	buf.WriteString(`</x:xmpmeta>`)
	buf.WriteString(`<?xpacket end="r"?>`)
	return buf.Bytes()
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
