package saml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const duplicateAttributeResponse = `<?xml version="1.0"?>
<samlp:Response xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol"
                xmlns:saml="urn:oasis:names:tc:SAML:2.0:assertion">
  <saml:Assertion>
    <saml:Subject>
      <saml:NameID>user-1</saml:NameID>
    </saml:Subject>
    <saml:AttributeStatement>
      <saml:Attribute Name="role">
        <saml:AttributeValue>editor</saml:AttributeValue>
      </saml:Attribute>
      <saml:Attribute Name="role">
        <saml:AttributeValue>viewer</saml:AttributeValue>
      </saml:Attribute>
      <saml:Attribute Name="email">
        <saml:AttributeValue>alice@example.com</saml:AttributeValue>
      </saml:Attribute>
    </saml:AttributeStatement>
  </saml:Assertion>
</samlp:Response>`

func TestExtractResponseMergesDuplicateNames(t *testing.T) {
	extracted, err := extractResponse([]byte(duplicateAttributeResponse))
	require.NoError(t, err)

	assert.Equal(t, []string{"editor", "viewer"}, extracted.Attributes["role"])
	assert.Equal(t, []string{"alice@example.com"}, extracted.Attributes["email"])
	assert.Equal(t, "user-1", extracted.NameID)
}

func TestExtractResponseSkipsEmptyValues(t *testing.T) {
	xml := `<?xml version="1.0"?>
<Response xmlns:saml="urn:oasis:names:tc:SAML:2.0:assertion">
  <saml:Attribute Name="groups">
    <saml:AttributeValue></saml:AttributeValue>
    <saml:AttributeValue>admin</saml:AttributeValue>
  </saml:Attribute>
</Response>`

	extracted, err := extractResponse([]byte(xml))
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, extracted.Attributes["groups"])
}

func TestExtractResponseIgnoresForeignNamespaces(t *testing.T) {
	xml := `<?xml version="1.0"?>
<Response xmlns:other="urn:example:other">
  <other:Attribute Name="role">
    <other:AttributeValue>admin</other:AttributeValue>
  </other:Attribute>
  <other:NameID>intruder</other:NameID>
</Response>`

	extracted, err := extractResponse([]byte(xml))
	require.NoError(t, err)
	assert.Empty(t, extracted.Attributes)
	assert.Empty(t, extracted.NameID)
}

func TestExtractResponseMalformedXML(t *testing.T) {
	_, err := extractResponse([]byte("<Response><unclosed"))
	assert.Error(t, err)
}
