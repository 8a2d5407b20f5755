package saml

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/crewjam/saml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ssopoc/authgate/internal/errors"
)

func TestClassifyResponseError(t *testing.T) {
	t.Run("duplicated name is recoverable", func(t *testing.T) {
		err := &saml.InvalidResponseError{
			PrivateErr: errors.New(`duplicated Name "role" in AttributeStatement`),
		}
		reason, recoverable := classifyResponseError(err)
		assert.True(t, recoverable)
		assert.Contains(t, reason, "duplicated Name")
	})

	t.Run("duplicate attribute phrasing is recoverable", func(t *testing.T) {
		_, recoverable := classifyResponseError(errors.New("duplicate attribute name role"))
		assert.True(t, recoverable)
	})

	t.Run("signature failure is fatal with private reason", func(t *testing.T) {
		err := &saml.InvalidResponseError{
			PrivateErr: errors.New("cannot validate signature on Response"),
		}
		reason, recoverable := classifyResponseError(err)
		assert.False(t, recoverable)
		assert.Equal(t, "cannot validate signature on Response", reason)
	})

	t.Run("plain error is fatal", func(t *testing.T) {
		reason, recoverable := classifyResponseError(errors.New("expired response"))
		assert.False(t, recoverable)
		assert.Equal(t, "expired response", reason)
	})
}

func TestRecoverDuplicateAttributes(t *testing.T) {
	t.Run("merges duplicate role attributes", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte(duplicateAttributeResponse))

		identity, err := recoverDuplicateAttributes(encoded)
		require.NoError(t, err)
		assert.Equal(t, "user-1", identity.SubjectID)
		assert.Equal(t, "user-1", identity.Ref.NameID)
		assert.Equal(t, "alice@example.com", identity.Email)
		assert.Equal(t, []string{"editor", "viewer"}, identity.Attributes["role"])
		assert.Equal(t, []string{"editor", "viewer"}, identity.Roles)
	})

	t.Run("missing response", func(t *testing.T) {
		_, err := recoverDuplicateAttributes("")
		assert.True(t, apperrors.IsAuth(err))
	})

	t.Run("bad base64", func(t *testing.T) {
		_, err := recoverDuplicateAttributes("%%%not-base64%%%")
		assert.True(t, apperrors.IsAuth(err))
	})
}

func TestIdentityFromAssertion(t *testing.T) {
	assertion := &saml.Assertion{
		Subject: &saml.Subject{
			NameID: &saml.NameID{
				Value:           "user-1",
				Format:          "urn:oasis:names:tc:SAML:2.0:nameid-format:persistent",
				NameQualifier:   "https://idp.example.com",
				SPNameQualifier: "http://localhost:8080/saml/metadata",
			},
		},
		AuthnStatements: []saml.AuthnStatement{
			{SessionIndex: "idx-42"},
		},
		AttributeStatements: []saml.AttributeStatement{
			{
				Attributes: []saml.Attribute{
					{Name: "username", Values: []saml.AttributeValue{{Value: "alice"}}},
					{Name: "email", Values: []saml.AttributeValue{{Value: "alice@example.com"}}},
					{Name: "groups", Values: []saml.AttributeValue{
						{Value: "admin"},
						{Value: "editor"},
					}},
					{FriendlyName: "department", Values: []saml.AttributeValue{{Value: "platform"}}},
					{Name: "blank", Values: []saml.AttributeValue{{Value: ""}}},
				},
			},
		},
	}

	identity := identityFromAssertion(assertion)

	assert.Equal(t, "user-1", identity.SubjectID)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, []string{"admin", "editor"}, identity.Roles)
	assert.Equal(t, []string{"platform"}, identity.Attributes["department"])
	assert.NotContains(t, identity.Attributes, "blank")

	assert.Equal(t, "idx-42", identity.Ref.SessionIndex)
	assert.Equal(t, "urn:oasis:names:tc:SAML:2.0:nameid-format:persistent", identity.Ref.NameIDFormat)
	assert.Equal(t, "https://idp.example.com", identity.Ref.NameQualifier)
	assert.Equal(t, "http://localhost:8080/saml/metadata", identity.Ref.SPNameQualifier)
}
