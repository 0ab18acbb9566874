package envelope

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/AllanBUSI/Fairpay-sub000/internal/domain/errors"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	apperrors "github.com/AllanBUSI/Fairpay-sub000/pkg/errors"
)

func TestParse_Kinds(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]string
		want     Kind
	}{
		{"empty", map[string]string{}, KindNone},
		{"fresh draft", map[string]string{KeyUserID: "u1", KeyProcedureData: `{"client":{"siret":"12345678901234"}}`}, KindFreshDraft},
		{"existing draft", map[string]string{KeyUserID: "u1", KeyProcedureID: "p1"}, KindUpdateExistingDraft},
		{"existing draft wins over snapshot", map[string]string{KeyUserID: "u1", KeyProcedureID: "p1", KeyProcedureData: `{}`}, KindUpdateExistingDraft},
		{"retry", map[string]string{KeyUserID: "u1", KeyProcedureID: "p1", KeyIsRetry: "true"}, KindRetry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Parse(tt.metadata)
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.Kind)
		})
	}
}

func TestParse_RejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]string
	}{
		{"bad flag", map[string]string{KeyIsInjonction: "yes"}},
		{"uppercase flag", map[string]string{KeyHasFacturation: "TRUE"}},
		{"bad snapshot", map[string]string{KeyProcedureData: "{not json"}},
		{"snapshot of wrong shape", map[string]string{KeyProcedureData: `{"documents":"nope"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.metadata)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrMalformedMetadata)
			assert.Equal(t, apperrors.ErrMalformedMetadata, apperrors.CodeOf(err))
		})
	}
}

func TestParseLenient_KeepsIdentifiers(t *testing.T) {
	env, err := ParseLenient(map[string]string{
		KeyUserID:         "u1",
		KeyProcedureID:    "p1",
		KeyHasFacturation: "1",
		KeyProcedureData:  "{not json",
		KeyIsInjonction:   "true",
	})
	require.NotNil(t, env)
	assert.ErrorIs(t, err, domainerrors.ErrMalformedMetadata)
	assert.Contains(t, err.Error(), KeyHasFacturation)
	assert.Contains(t, err.Error(), KeyProcedureData)

	assert.Equal(t, "u1", env.UserID)
	assert.Equal(t, "p1", env.ProcedureID)
	assert.True(t, env.IsInjonction)
	assert.False(t, env.HasFacturation)
	assert.Nil(t, env.ProcedureData)
	assert.Equal(t, KindUpdateExistingDraft, env.Kind)
	assert.NoError(t, env.RequireProcedureID())

	env, err = ParseLenient(map[string]string{KeyUserID: "u1"})
	require.NoError(t, err)
	assert.ErrorIs(t, env.RequireProcedureID(), domainerrors.ErrMalformedMetadata)
}

func TestParse_SnapshotFieldsAreCaseInsensitive(t *testing.T) {
	env, err := Parse(map[string]string{
		KeyUserID:        "u1",
		KeyProcedureData: `{"client":{"SIRET":"12345678901234","raisonSociale":"ACME"},"montantDu":"1200.50"}`,
	})
	require.NoError(t, err)
	require.NotNil(t, env.ProcedureData)
	assert.Equal(t, "12345678901234", env.ProcedureData.Siret())
	assert.True(t, env.ProcedureData.MontantDu.Equal(decimal.RequireFromString("1200.50")))
}

func TestRequire(t *testing.T) {
	env, err := Parse(map[string]string{KeyProcedureID: "p1"})
	require.NoError(t, err)
	assert.ErrorIs(t, env.RequireUser(), domainerrors.ErrMalformedMetadata)
	assert.ErrorIs(t, env.RequireProcedure(), domainerrors.ErrMalformedMetadata)

	env, err = Parse(map[string]string{KeyUserID: "u1"})
	require.NoError(t, err)
	assert.NoError(t, env.RequireUser())
	assert.ErrorIs(t, env.RequireProcedure(), domainerrors.ErrMalformedMetadata)
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&Envelope{ProcedureID: "p1"}).Validate())
	assert.Error(t, (&Envelope{UserID: "u1"}).Validate())
	assert.NoError(t, (&Envelope{UserID: "u1", ProcedureID: "p1"}).Validate())
	assert.NoError(t, (&Envelope{UserID: "u1", ProcedureData: &ProcedureSnapshot{}}).Validate())

	big := &ProcedureSnapshot{Description: strings.Repeat("x", MaxValueLength)}
	err := (&Envelope{UserID: "u1", ProcedureData: big}).Validate()
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidArgument, apperrors.CodeOf(err))
}

func TestEncode_ParsesBack(t *testing.T) {
	in := &Envelope{
		UserID:                  "u1",
		ProcedureID:             "p1",
		IsRetry:                 true,
		OriginalPaymentIntentID: "pi_old",
		IsInjonction:            true,
	}
	metadata, err := in.Encode()
	require.NoError(t, err)
	assert.Equal(t, "true", metadata[KeyIsRetry])
	assert.Equal(t, "false", metadata[KeyHasEcheancier])
	assert.NotContains(t, metadata, KeyProcedureData)

	out, err := Parse(metadata)
	require.NoError(t, err)
	assert.Equal(t, KindRetry, out.Kind)
	assert.Equal(t, "pi_old", out.OriginalPaymentIntentID)
	assert.True(t, out.IsInjonction)
}

func TestSnapshot_InstallmentsAreCapped(t *testing.T) {
	snapshot := &ProcedureSnapshot{}
	for i := 0; i < 8; i++ {
		snapshot.Echeancier = append(snapshot.Echeancier, InstallmentSnapshot{
			Date:    "2025-0" + string(rune('1'+i)) + "-01",
			Montant: decimal.NewFromInt(int64(100 + i)),
		})
	}

	got := snapshot.Installments()
	require.Len(t, got, model.MaxInstallments)
	assert.Equal(t, "2025-01-01", got[0].Date)
	assert.Equal(t, "2025-05-01", got[4].Date)
}

func TestSnapshot_PlaceholderSiret(t *testing.T) {
	snapshot := &ProcedureSnapshot{Client: ClientSnapshot{Siret: "  "}}
	assert.Equal(t, model.PlaceholderSiret, snapshot.Siret())

	client := snapshot.NewClient("u1")
	assert.True(t, client.HasPlaceholderSiret())
	assert.Equal(t, "u1", client.UserID)
}

func TestSnapshotValidate(t *testing.T) {
	valid := &ProcedureSnapshot{
		Client: ClientSnapshot{Siret: "12345678901234", RaisonSociale: "ACME"},
		Documents: []DocumentSnapshot{
			{Type: "FACTURE", Numero: "F-1", Montant: decimal.NewFromInt(100), DateEmission: "2025-01-10"},
		},
	}
	assert.NoError(t, valid.Validate())

	invalid := &ProcedureSnapshot{
		Client:    ClientSnapshot{Siret: "123", RaisonSociale: "ACME"},
		Documents: []DocumentSnapshot{{Type: "RECU"}},
	}
	assert.Error(t, invalid.Validate())
}
