package history

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SubjectType is the discriminator of the Subject union.
type SubjectType string

const (
	SubjectMSA         SubjectType = "MSA"
	SubjectAAD         SubjectType = "AAD"
	SubjectAAD2        SubjectType = "AAD2"
	SubjectDevice      SubjectType = "Device"
	SubjectDemographic SubjectType = "Demographic"
)

var subjectTypes = []SubjectType{SubjectMSA, SubjectAAD, SubjectAAD2, SubjectDevice, SubjectDemographic}

// ParseSubjectType accepts the discriminator names case-insensitively.
func ParseSubjectType(s string) (SubjectType, error) {
	for _, t := range subjectTypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown subject type %q", s)
}

// Subject is the individual a command concerns. The set of implementations
// is closed; switches over it must cover every kind listed above.
type Subject interface {
	SubjectType() SubjectType
	isSubject()
}

type MSASubject struct {
	Puid int64  `json:"puid"`
	Anid string `json:"anid,omitempty"`
	Opid string `json:"opid,omitempty"`
	Cid  int64  `json:"cid,omitempty"`
}

type AADSubject struct {
	ObjectID  uuid.UUID `json:"objectId"`
	TenantID  uuid.UUID `json:"tenantId"`
	OrgIDPUID int64     `json:"orgIdPuid,omitempty"`
}

// AADSubject2 is the multi-tenant form of an AAD subject. Only callers and
// agents that understand it get to see it; everyone else sees AADSubject.
type AADSubject2 struct {
	AADSubject
	HomeTenantID uuid.UUID `json:"homeTenantId"`
	TenantIDType string    `json:"tenantIdType,omitempty"`
}

type DeviceSubject struct {
	GlobalDeviceID int64 `json:"globalDeviceId"`
}

type DemographicSubject struct {
	Names  []string `json:"names,omitempty"`
	Emails []string `json:"emails,omitempty"`
	Phones []string `json:"phones,omitempty"`
}

func (MSASubject) SubjectType() SubjectType         { return SubjectMSA }
func (AADSubject) SubjectType() SubjectType         { return SubjectAAD }
func (AADSubject2) SubjectType() SubjectType        { return SubjectAAD2 }
func (DeviceSubject) SubjectType() SubjectType      { return SubjectDevice }
func (DemographicSubject) SubjectType() SubjectType { return SubjectDemographic }

func (MSASubject) isSubject()         {}
func (AADSubject) isSubject()         {}
func (AADSubject2) isSubject()        {}
func (DeviceSubject) isSubject()      {}
func (DemographicSubject) isSubject() {}

// SubjectIdentity returns the exact-match key used by status filters.
// Demographic subjects have no stable identity and cannot be filtered on.
func SubjectIdentity(s Subject) (string, bool) {
	switch v := s.(type) {
	case MSASubject:
		return strconv.FormatInt(v.Puid, 10), true
	case AADSubject:
		return v.ObjectID.String(), true
	case AADSubject2:
		return v.ObjectID.String(), true
	case DeviceSubject:
		return strconv.FormatInt(v.GlobalDeviceID, 10), true
	case DemographicSubject:
		return "", false
	default:
		return "", false
	}
}

// NormalizeSubjectIdentity canonicalises a caller-supplied identity so it
// compares equal to SubjectIdentity of the stored subject.
func NormalizeSubjectIdentity(t SubjectType, raw string) (string, error) {
	switch t {
	case SubjectMSA, SubjectDevice:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return "", fmt.Errorf("%s subject id must be an integer: %w", t, err)
		}
		return strconv.FormatInt(n, 10), nil
	case SubjectAAD, SubjectAAD2:
		u, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return "", fmt.Errorf("%s subject id must be an object id: %w", t, err)
		}
		return u.String(), nil
	case SubjectDemographic:
		return "", fmt.Errorf("%s subjects cannot be filtered on", t)
	default:
		return "", fmt.Errorf("unknown subject type %q", t)
	}
}

type subjectEnvelope struct {
	Type SubjectType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalSubject encodes a subject with its discriminator.
func MarshalSubject(s Subject) ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(subjectEnvelope{Type: s.SubjectType(), Data: data})
}

// UnmarshalSubject decodes the envelope written by MarshalSubject. A null
// document decodes to a nil subject.
func UnmarshalSubject(b []byte) (Subject, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	var env subjectEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: subject envelope: %v", ErrCorruptRecord, err)
	}
	var (
		s   Subject
		err error
	)
	switch env.Type {
	case SubjectMSA:
		var v MSASubject
		err = json.Unmarshal(env.Data, &v)
		s = v
	case SubjectAAD:
		var v AADSubject
		err = json.Unmarshal(env.Data, &v)
		s = v
	case SubjectAAD2:
		var v AADSubject2
		err = json.Unmarshal(env.Data, &v)
		s = v
	case SubjectDevice:
		var v DeviceSubject
		err = json.Unmarshal(env.Data, &v)
		s = v
	case SubjectDemographic:
		var v DemographicSubject
		err = json.Unmarshal(env.Data, &v)
		s = v
	default:
		return nil, fmt.Errorf("%w: unknown subject type %q", ErrCorruptRecord, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s subject: %v", ErrCorruptRecord, env.Type, err)
	}
	return s, nil
}
