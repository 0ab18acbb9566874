// Package envelope encodes and decodes the metadata attached to provider
// payment intents and checkout sessions. The metadata is the only channel
// through which an asynchronous provider event learns which procedure to
// create or update, so decoding is strict and every failure is classified
// as malformed metadata. Paths that only revert state use ParseLenient.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	domainerrors "github.com/AllanBUSI/Fairpay-sub000/internal/domain/errors"
	apperrors "github.com/AllanBUSI/Fairpay-sub000/pkg/errors"
)

// Metadata keys. All values are strings on the wire.
const (
	KeyUserID                  = "userId"
	KeyProcedureID             = "procedureId"
	KeyProcedureData           = "procedureData"
	KeyIsRetry                 = "isRetry"
	KeyOriginalPaymentIntentID = "originalPaymentIntentId"
	KeyIsInjonction            = "isInjonction"
	KeyHasEcheancier           = "hasEcheancier"
	KeyHasFacturation          = "hasFacturation"
	// KeyNewPaymentIntentID is only recorded on the payment row after a retry
	KeyNewPaymentIntentID = "newPaymentIntentId"
)

// MaxValueLength is the provider limit for a single metadata value
const MaxValueLength = 500

// Kind tells the reconciliation handlers which procedure path an envelope drives
type Kind string

const (
	// KindNone carries neither a procedure id nor a snapshot
	KindNone Kind = ""
	// KindFreshDraft carries a snapshot and no procedure id
	KindFreshDraft Kind = "fresh-draft"
	// KindUpdateExistingDraft names an existing procedure
	KindUpdateExistingDraft Kind = "update-existing-draft"
	// KindRetry is a payment retried from a failed or pending attempt
	KindRetry Kind = "retry"
)

// Envelope is the typed form of the metadata map
type Envelope struct {
	Kind                    Kind
	UserID                  string
	ProcedureID             string
	ProcedureData           *ProcedureSnapshot
	IsRetry                 bool
	OriginalPaymentIntentID string
	IsInjonction            bool
	HasEcheancier           bool
	HasFacturation          bool
}

// Parse decodes metadata. Missing keys are allowed; presence requirements are
// checked by the consumer. Values that are present must be well formed.
func Parse(metadata map[string]string) (*Envelope, error) {
	env := &Envelope{
		UserID:                  metadata[KeyUserID],
		ProcedureID:             metadata[KeyProcedureID],
		OriginalPaymentIntentID: metadata[KeyOriginalPaymentIntentID],
	}

	var err error
	if env.IsRetry, err = parseFlag(metadata, KeyIsRetry); err != nil {
		return nil, err
	}
	if env.IsInjonction, err = parseFlag(metadata, KeyIsInjonction); err != nil {
		return nil, err
	}
	if env.HasEcheancier, err = parseFlag(metadata, KeyHasEcheancier); err != nil {
		return nil, err
	}
	if env.HasFacturation, err = parseFlag(metadata, KeyHasFacturation); err != nil {
		return nil, err
	}

	if env.ProcedureData, err = parseSnapshot(metadata); err != nil {
		return nil, err
	}

	env.Kind = env.kind()
	return env, nil
}

// ParseLenient decodes whatever metadata is usable and never returns a nil
// envelope. Malformed flags read as false and a malformed snapshot is
// dropped; the error lists what was ignored.
func ParseLenient(metadata map[string]string) (*Envelope, error) {
	env := &Envelope{
		UserID:                  metadata[KeyUserID],
		ProcedureID:             metadata[KeyProcedureID],
		OriginalPaymentIntentID: metadata[KeyOriginalPaymentIntentID],
	}

	var errs []error
	flag := func(key string) bool {
		v, err := parseFlag(metadata, key)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	env.IsRetry = flag(KeyIsRetry)
	env.IsInjonction = flag(KeyIsInjonction)
	env.HasEcheancier = flag(KeyHasEcheancier)
	env.HasFacturation = flag(KeyHasFacturation)

	snapshot, err := parseSnapshot(metadata)
	if err != nil {
		errs = append(errs, err)
	}
	env.ProcedureData = snapshot

	env.Kind = env.kind()
	return env, errors.Join(errs...)
}

func parseSnapshot(metadata map[string]string) (*ProcedureSnapshot, error) {
	raw := metadata[KeyProcedureData]
	if raw == "" {
		return nil, nil
	}
	var snapshot ProcedureSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, malformed("%s is not a valid procedure snapshot: %v", KeyProcedureData, err)
	}
	return &snapshot, nil
}

func (e *Envelope) kind() Kind {
	switch {
	case e.IsRetry:
		return KindRetry
	case e.ProcedureID != "":
		return KindUpdateExistingDraft
	case e.ProcedureData != nil:
		return KindFreshDraft
	default:
		return KindNone
	}
}

func parseFlag(metadata map[string]string, key string) (bool, error) {
	switch metadata[key] {
	case "", "false":
		return false, nil
	case "true":
		return true, nil
	default:
		return false, malformed("%s must be \"true\" or \"false\", got %q", key, metadata[key])
	}
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domainerrors.ErrMalformedMetadata, fmt.Sprintf(format, args...))
}

// RequireUser returns a malformed-metadata error when the envelope has no user id
func (e *Envelope) RequireUser() error {
	if e.UserID == "" {
		return malformed("%s is missing", KeyUserID)
	}
	return nil
}

// RequireProcedureID returns a malformed-metadata error when the envelope names no procedure
func (e *Envelope) RequireProcedureID() error {
	if e.ProcedureID == "" {
		return malformed("%s is missing", KeyProcedureID)
	}
	return nil
}

// RequireProcedure returns a malformed-metadata error unless both user and procedure ids are set
func (e *Envelope) RequireProcedure() error {
	if err := e.RequireUser(); err != nil {
		return err
	}
	return e.RequireProcedureID()
}

// Validate enforces what every outgoing envelope must carry: a user id and
// either a procedure id or a snapshot, within the provider value limit.
func (e *Envelope) Validate() error {
	if e.UserID == "" {
		return apperrors.InvalidArgument("metadata requires a user id", nil)
	}
	if e.ProcedureID == "" && e.ProcedureData == nil {
		return apperrors.InvalidArgument("metadata requires a procedure id or procedure data", nil)
	}
	if e.ProcedureData != nil {
		raw, err := json.Marshal(e.ProcedureData)
		if err != nil {
			return apperrors.Internal("failed to encode procedure data", err)
		}
		if len(raw) > MaxValueLength {
			return apperrors.InvalidArgument(
				fmt.Sprintf("procedure data is %d bytes, above the %d byte metadata limit; save the draft and pay it by id", len(raw), MaxValueLength), nil)
		}
	}
	return nil
}

// Encode renders the envelope as provider metadata. Flags are always written.
func (e *Envelope) Encode() (map[string]string, error) {
	metadata := map[string]string{
		KeyIsRetry:        strconv.FormatBool(e.IsRetry),
		KeyIsInjonction:   strconv.FormatBool(e.IsInjonction),
		KeyHasEcheancier:  strconv.FormatBool(e.HasEcheancier),
		KeyHasFacturation: strconv.FormatBool(e.HasFacturation),
	}
	if e.UserID != "" {
		metadata[KeyUserID] = e.UserID
	}
	if e.ProcedureID != "" {
		metadata[KeyProcedureID] = e.ProcedureID
	}
	if e.OriginalPaymentIntentID != "" {
		metadata[KeyOriginalPaymentIntentID] = e.OriginalPaymentIntentID
	}
	if e.ProcedureData != nil {
		raw, err := json.Marshal(e.ProcedureData)
		if err != nil {
			return nil, fmt.Errorf("failed to encode procedure data: %w", err)
		}
		metadata[KeyProcedureData] = string(raw)
	}
	return metadata, nil
}
