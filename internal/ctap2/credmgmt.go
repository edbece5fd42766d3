package ctap2

import "github.com/fxamacker/cbor/v2"

// authenticatorCredentialManagement subcommands (spec.md §4.6).
const (
	credSubGetCredsMetadata     = 0x01
	credSubEnumerateRPsBegin    = 0x02
	credSubEnumerateRPsNext     = 0x03
	credSubEnumerateCredsBegin  = 0x04
	credSubEnumerateCredsNext   = 0x05
	credSubDeleteCredential     = 0x06
)

type pubKeyCredDescriptor struct {
	Type string `cbor:"type"`
	ID   []byte `cbor:"id"`
}

type credentialManagementRequest struct {
	SubCommand    int                    `cbor:"1,keyasint"`
	RPIDHash      []byte                 `cbor:"3,keyasint,omitempty"`
	Credential    *pubKeyCredDescriptor  `cbor:"4,keyasint,omitempty"`
	PinProtocol   int                    `cbor:"5,keyasint,omitempty"`
	PinUvAuthParam []byte                `cbor:"6,keyasint,omitempty"`
}

type rpEntity struct {
	ID   string `cbor:"id"`
	Name string `cbor:"name,omitempty"`
}

type userEntity struct {
	ID          []byte `cbor:"id"`
	Name        string `cbor:"name,omitempty"`
	DisplayName string `cbor:"displayName,omitempty"`
}

type credentialManagementResponse struct {
	ExistingResidentCredentialsCount     int                   `cbor:"1,keyasint,omitempty"`
	MaxPossibleRemainingResidentCredentialsCount int           `cbor:"2,keyasint,omitempty"`
	RP                                    *rpEntity             `cbor:"3,keyasint,omitempty"`
	RPIDHash                              []byte                `cbor:"4,keyasint,omitempty"`
	TotalRPs                              int                   `cbor:"5,keyasint,omitempty"`
	User                                  *userEntity           `cbor:"6,keyasint,omitempty"`
	CredentialID                          *pubKeyCredDescriptor `cbor:"7,keyasint,omitempty"`
	TotalCredentials                      int                   `cbor:"9,keyasint,omitempty"`
}

// CredsMetadata reports the resident-credential capacity summary
// (authenticatorCredentialManagement subcommand getCredsMetadata).
type CredsMetadata struct {
	Existing            int
	MaxPossibleRemaining int
}

// GetCredsMetadata requires a PIN-authenticated pinUvAuthParam computed
// over subcommand 0x01 with no parameters: pinAuth = left 16 bytes of
// HMAC-SHA-256(pinToken, [0x01]).
func (d *Device) GetCredsMetadata(pinToken []byte) (CredsMetadata, error) {
	resp, err := d.credentialManagement(credSubGetCredsMetadata, nil, pinToken, []byte{credSubGetCredsMetadata})
	if err != nil {
		return CredsMetadata{}, err
	}
	return CredsMetadata{
		Existing:             resp.ExistingResidentCredentialsCount,
		MaxPossibleRemaining: resp.MaxPossibleRemainingResidentCredentialsCount,
	}, nil
}

// RelyingParty is one enumerated RP: its id, name, and RP id hash.
type RelyingParty struct {
	ID       string
	Name     string
	RPIDHash []byte
}

// EnumerateRPs lists every relying party with at least one resident
// credential. An empty list is a valid, non-error result (spec.md
// §4.6: "empty list is a valid result, not an error").
func (d *Device) EnumerateRPs(pinToken []byte, authFn func(session *PinSession) []byte) ([]RelyingParty, error) {
	resp, err := d.credentialManagement(credSubEnumerateRPsBegin, nil, pinToken, []byte{credSubEnumerateRPsBegin})
	if err != nil {
		if se, ok := err.(*StatusError); ok && se.Status == StatusNoCredentials {
			return nil, nil
		}
		return nil, err
	}
	out := []RelyingParty{}
	if resp.RP != nil {
		out = append(out, RelyingParty{ID: resp.RP.ID, Name: resp.RP.Name, RPIDHash: resp.RPIDHash})
	}
	for i := 1; i < resp.TotalRPs; i++ {
		next, err := d.credentialManagementNoAuth(credSubEnumerateRPsNext)
		if err != nil {
			return nil, err
		}
		if next.RP != nil {
			out = append(out, RelyingParty{ID: next.RP.ID, Name: next.RP.Name, RPIDHash: next.RPIDHash})
		}
	}
	return out, nil
}

// Credential is one resident credential enumerated under an RP.
type Credential struct {
	CredentialID []byte
	UserID       []byte
	UserName     string
}

// EnumerateCredentials lists every resident credential under the RP
// identified by rpIDHash.
func (d *Device) EnumerateCredentials(pinToken, rpIDHash []byte) ([]Credential, error) {
	authInput := append([]byte{credSubEnumerateCredsBegin}, rpIDHash...)
	resp, err := d.credentialManagement(credSubEnumerateCredsBegin, rpIDHash, pinToken, authInput)
	if err != nil {
		if se, ok := err.(*StatusError); ok && se.Status == StatusNoCredentials {
			return nil, nil
		}
		return nil, err
	}
	out := []Credential{}
	appendOne := func(r credentialManagementResponse) {
		if r.CredentialID == nil {
			return
		}
		c := Credential{CredentialID: r.CredentialID.ID}
		if r.User != nil {
			c.UserID = r.User.ID
			c.UserName = r.User.Name
		}
		out = append(out, c)
	}
	appendOne(resp)
	for i := 1; i < resp.TotalCredentials; i++ {
		next, err := d.credentialManagementNoAuth(credSubEnumerateCredsNext)
		if err != nil {
			return nil, err
		}
		appendOne(next)
	}
	return out, nil
}

// DeleteCredential removes one resident credential by its id.
func (d *Device) DeleteCredential(pinToken, credentialID []byte) error {
	cred := &pubKeyCredDescriptor{Type: "public-key", ID: credentialID}
	authInput, err := cbor.Marshal(cred)
	if err != nil {
		return err
	}
	authInput = append([]byte{credSubDeleteCredential}, authInput...)
	_, err = d.credentialManagementWithCred(credSubDeleteCredential, cred, pinToken, authInput)
	return err
}

func (d *Device) credentialManagement(subCmd int, rpIDHash, pinToken, authInput []byte) (credentialManagementResponse, error) {
	session := tokenSession(pinToken)
	auth := session.pinAuth(authInput)
	req := credentialManagementRequest{
		SubCommand:     subCmd,
		RPIDHash:       rpIDHash,
		PinProtocol:    pinProtocolV1,
		PinUvAuthParam: auth,
	}
	return d.sendCredentialManagement(req)
}

func (d *Device) credentialManagementWithCred(subCmd int, cred *pubKeyCredDescriptor, pinToken, authInput []byte) (credentialManagementResponse, error) {
	session := tokenSession(pinToken)
	auth := session.pinAuth(authInput)
	req := credentialManagementRequest{
		SubCommand:     subCmd,
		Credential:     cred,
		PinProtocol:    pinProtocolV1,
		PinUvAuthParam: auth,
	}
	return d.sendCredentialManagement(req)
}

func (d *Device) credentialManagementNoAuth(subCmd int) (credentialManagementResponse, error) {
	return d.sendCredentialManagement(credentialManagementRequest{SubCommand: subCmd})
}

func (d *Device) sendCredentialManagement(req credentialManagementRequest) (credentialManagementResponse, error) {
	params, err := cbor.Marshal(req)
	if err != nil {
		return credentialManagementResponse{}, err
	}
	body, err := d.Call(CmdCredentialManagement, params, DefaultTimeout)
	if err != nil {
		return credentialManagementResponse{}, err
	}
	var resp credentialManagementResponse
	if err := cbor.Unmarshal(body, &resp); err != nil {
		return credentialManagementResponse{}, &StatusError{Status: StatusInvalidCBOR}
	}
	return resp, nil
}
