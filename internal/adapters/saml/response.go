package saml

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/crewjam/saml"

	domainauth "github.com/ssopoc/authgate/internal/domain/auth"
	apperrors "github.com/ssopoc/authgate/internal/errors"
)

// ParseCallback consumes a posted SAML response. Parsing, signature and
// conditions validation are delegated to the toolkit; the one tolerated
// failure mode is a duplicated attribute name, which falls back to the
// manual extractor (see recoverDuplicateAttributes).
func (p *Provider) ParseCallback(r *http.Request) (domainauth.Identity, error) {
	if err := r.ParseForm(); err != nil {
		return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeValidation, "parse callback form")
	}

	assertion, err := p.sp.ParseResponse(r, nil)
	if err != nil {
		reason, recoverable := classifyResponseError(err)
		if recoverable {
			return recoverDuplicateAttributes(r.PostForm.Get("SAMLResponse"))
		}
		return domainauth.Identity{}, apperrors.Auth(reason)
	}

	return identityFromAssertion(assertion), nil
}

// classifyResponseError turns a toolkit parse failure into the reason string
// to surface and a flag marking the duplicated-attribute-name case as
// recoverable. Toolkits that reject duplicate attribute names report it in
// the parse error message; there is no structured code for it, so this is a
// compatibility shim keyed on the message text. It must not be widened to
// suppress any other validation failure.
func classifyResponseError(err error) (reason string, recoverable bool) {
	// The toolkit hides the real cause behind a generic InvalidResponseError;
	// the private error is the "last error reason".
	var ire *saml.InvalidResponseError
	if errors.As(err, &ire) && ire.PrivateErr != nil {
		err = ire.PrivateErr
	}
	reason = err.Error()
	lower := strings.ToLower(reason)
	recoverable = strings.Contains(lower, "duplicated name") ||
		strings.Contains(lower, "duplicate attribute")
	return reason, recoverable
}

// recoverDuplicateAttributes re-parses the decoded response with the manual
// extractor, merging the duplicate attribute names the toolkit rejected.
//
// Known weakness: no signature or conditions validation is re-run here. The
// fallback relies on the toolkit having validated the response internally
// before it failed on the duplicate name. SessionIndex is unavailable on
// this path.
func recoverDuplicateAttributes(samlResponse string) (domainauth.Identity, error) {
	if samlResponse == "" {
		return domainauth.Identity{}, apperrors.Auth("missing SAMLResponse")
	}
	decoded, err := base64.StdEncoding.DecodeString(samlResponse)
	if err != nil {
		return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeAuth, "decode SAMLResponse")
	}
	extracted, err := extractResponse(decoded)
	if err != nil {
		return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeAuth, "parse SAML response")
	}

	return domainauth.Identity{
		SubjectID:  extracted.NameID,
		Username:   domainauth.FirstAttribute(extracted.Attributes, "username"),
		Email:      domainauth.FirstAttribute(extracted.Attributes, "email"),
		Roles:      domainauth.RolesFromAttributes(extracted.Attributes),
		Attributes: extracted.Attributes,
		Ref: domainauth.ProtocolSessionRef{
			NameID: extracted.NameID,
		},
	}, nil
}

// identityFromAssertion maps a validated assertion to the domain identity.
func identityFromAssertion(assertion *saml.Assertion) domainauth.Identity {
	attrs := make(map[string][]string)
	for _, stmt := range assertion.AttributeStatements {
		for _, attr := range stmt.Attributes {
			name := attr.Name
			if name == "" {
				name = attr.FriendlyName
			}
			if name == "" {
				continue
			}
			for _, v := range attr.Values {
				if v.Value == "" {
					continue
				}
				attrs[name] = append(attrs[name], v.Value)
			}
		}
	}

	ref := domainauth.ProtocolSessionRef{}
	if assertion.Subject != nil && assertion.Subject.NameID != nil {
		nameID := assertion.Subject.NameID
		ref.NameID = nameID.Value
		ref.NameIDFormat = nameID.Format
		ref.NameQualifier = nameID.NameQualifier
		ref.SPNameQualifier = nameID.SPNameQualifier
	}
	for _, stmt := range assertion.AuthnStatements {
		if stmt.SessionIndex != "" {
			ref.SessionIndex = stmt.SessionIndex
			break
		}
	}

	return domainauth.Identity{
		SubjectID:  ref.NameID,
		Username:   domainauth.FirstAttribute(attrs, "username"),
		Email:      domainauth.FirstAttribute(attrs, "email"),
		Roles:      domainauth.RolesFromAttributes(attrs),
		Attributes: attrs,
		Ref:        ref,
	}
}
