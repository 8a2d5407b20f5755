package saml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

const assertionNamespace = "urn:oasis:names:tc:SAML:2.0:assertion"

// extractedResponse is the result of walking the assertion XML directly.
type extractedResponse struct {
	// Attributes maps attribute name to its values in document order.
	// Values of repeated attribute names are appended, not replaced.
	Attributes map[string][]string
	// NameID is the first NameID element's text, or empty when absent.
	NameID string
}

// rawAttribute mirrors a saml:Attribute element closely enough to collect
// its name and value texts.
type rawAttribute struct {
	Name   string `xml:"Name,attr"`
	Values []struct {
		Value string `xml:",chardata"`
	} `xml:"AttributeValue"`
}

// extractResponse walks a decoded SAML response and collects every
// Attribute element in the assertion namespace, merging values for
// duplicate attribute names. This tolerates IdPs that emit the same
// attribute name multiple times, which strict toolkits reject.
func extractResponse(decoded []byte) (*extractedResponse, error) {
	out := &extractedResponse{Attributes: make(map[string][]string)}

	dec := xml.NewDecoder(bytes.NewReader(decoded))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode assertion XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Space != assertionNamespace {
			continue
		}
		switch start.Name.Local {
		case "Attribute":
			var attr rawAttribute
			if err := dec.DecodeElement(&attr, &start); err != nil {
				return nil, fmt.Errorf("decode Attribute element: %w", err)
			}
			if attr.Name == "" {
				continue
			}
			for _, v := range attr.Values {
				if v.Value == "" {
					continue
				}
				out.Attributes[attr.Name] = append(out.Attributes[attr.Name], v.Value)
			}
		case "NameID":
			var value string
			if err := dec.DecodeElement(&value, &start); err != nil {
				return nil, fmt.Errorf("decode NameID element: %w", err)
			}
			if out.NameID == "" {
				out.NameID = value
			}
		}
	}

	return out, nil
}
