package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/envelope"
	domainErrors "github.com/AllanBUSI/Fairpay-sub000/internal/domain/errors"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/metrics"
)

// ReconcilerConfig carries the settings the reconciliation flows need
type ReconcilerConfig struct {
	// SubscriptionPriceID is bundled with a paid dossier when hasFacturation is set.
	// Empty disables the bundled subscription.
	SubscriptionPriceID string
	// InvoiceItemDescription labels the synthetic line item used when the session items cannot be read
	InvoiceItemDescription string
}

// Reconciler applies provider events to procedures, payments and subscriptions
type Reconciler struct {
	repos   *repository.Repositories
	tx      repository.Transactor
	gateway provider.PaymentGateway
	config  ReconcilerConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewReconciler creates a new reconciler
func NewReconciler(
	repos *repository.Repositories,
	tx repository.Transactor,
	gateway provider.PaymentGateway,
	config ReconcilerConfig,
	logger *zap.Logger,
) *Reconciler {
	if config.InvoiceItemDescription == "" {
		config.InvoiceItemDescription = "Dossier de recouvrement"
	}
	return &Reconciler{
		repos:   repos,
		tx:      tx,
		gateway: gateway,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

func missingObject(eventType string) error {
	return fmt.Errorf("%w: %s event carries no object", domainErrors.ErrMalformedMetadata, eventType)
}

// markUnpaid moves a procedure back to the unpaid target with a FAILED payment status.
// A procedure already in the injunction stage stays in it.
func (r *Reconciler) markUnpaid(ctx context.Context, procedureID string, isInjonction bool) error {
	procedure, err := r.repos.Procedure.GetByID(ctx, procedureID)
	if err != nil {
		return err
	}
	if procedure == nil {
		r.logger.Info("Procedure not found, nothing to mark unpaid",
			zap.String("procedure_id", procedureID))
		return nil
	}

	isInjonction = isInjonction || procedure.Status.IsInjonction()
	_, err = r.repos.Procedure.ForceStatus(ctx, procedure.ID, repository.ProcedureStatusUpdate{
		Status:        model.UnpaidTarget(isInjonction),
		PaymentStatus: model.PaymentStatusFailed,
	})
	return err
}

// findOrCreateClient returns the id of the user's client with the snapshot SIRET
func (r *Reconciler) findOrCreateClient(ctx context.Context, repos *repository.Repositories, userID string, snapshot *envelope.ProcedureSnapshot) (string, error) {
	client, err := repos.Client.FindByUserAndSiret(ctx, userID, snapshot.Siret())
	if err != nil {
		return "", err
	}
	if client != nil {
		return client.ID, nil
	}

	client = snapshot.NewClient(userID)
	if err := repos.Client.Create(ctx, client); err != nil {
		return "", err
	}
	return client.ID, nil
}

// createProcedureFromSnapshot materializes a procedure, its client and its documents.
// The payment is linked both ways.
func (r *Reconciler) createProcedureFromSnapshot(
	ctx context.Context,
	repos *repository.Repositories,
	payment *model.Payment,
	env *envelope.Envelope,
	status model.ProcedureStatus,
	paymentStatus model.PaymentStatus,
) (*model.Procedure, error) {
	snapshot := env.ProcedureData

	clientID, err := r.findOrCreateClient(ctx, repos, env.UserID, snapshot)
	if err != nil {
		return nil, err
	}

	procedure := snapshot.NewProcedure(env.UserID, clientID, status, env.HasFacturation)
	procedure.PaymentStatus = paymentStatus.Ptr()
	procedure.PaymentID = &payment.ID
	if err := repos.Procedure.Create(ctx, procedure); err != nil {
		return nil, err
	}

	if docs := snapshot.NewDocuments(procedure.ID); len(docs) > 0 {
		if err := repos.Document.ReplaceForProcedure(ctx, procedure.ID, docs); err != nil {
			return nil, err
		}
	}

	if err := repos.Payment.Update(ctx, payment.ID, map[string]interface{}{
		"procedure_id": procedure.ID,
	}); err != nil {
		return nil, err
	}
	return procedure, nil
}

// updateDraftFromSnapshot rewrites an existing draft with the snapshot content.
// The stored client is updated in place unless the snapshot names a different,
// real SIRET, in which case the procedure moves to that client.
func (r *Reconciler) updateDraftFromSnapshot(
	ctx context.Context,
	repos *repository.Repositories,
	procedure *model.Procedure,
	payment *model.Payment,
	env *envelope.Envelope,
	status model.ProcedureStatus,
	paymentStatus model.PaymentStatus,
) error {
	snapshot := env.ProcedureData
	siret := snapshot.Siret()

	stored := procedure.Client
	if stored == nil && procedure.ClientID != nil {
		var err error
		if stored, err = repos.Client.GetByID(ctx, *procedure.ClientID); err != nil {
			return err
		}
	}

	var clientID string
	if stored != nil && (siret == model.PlaceholderSiret || siret == stored.Siret) {
		updates := snapshot.ClientUpdates()
		if siret == model.PlaceholderSiret {
			delete(updates, "siret")
		}
		if err := repos.Client.Update(ctx, stored.ID, updates); err != nil {
			return err
		}
		clientID = stored.ID
	} else {
		id, err := r.findOrCreateClient(ctx, repos, env.UserID, snapshot)
		if err != nil {
			return err
		}
		clientID = id
	}

	if err := repos.Document.ReplaceForProcedure(ctx, procedure.ID, snapshot.NewDocuments(procedure.ID)); err != nil {
		return err
	}

	if err := repos.Procedure.Update(ctx, procedure.ID, map[string]interface{}{
		"client_id":       clientID,
		"montant_du":      snapshot.MontantDu,
		"description":     snapshot.Description,
		"echeancier":      snapshot.Installments(),
		"has_facturation": env.HasFacturation,
		"status":          status,
		"payment_status":  paymentStatus,
		"payment_id":      payment.ID,
	}); err != nil {
		return err
	}

	return repos.Payment.Update(ctx, payment.ID, map[string]interface{}{
		"procedure_id": procedure.ID,
	})
}

// newPaymentFromIntent builds the Payment row for an intent seen for the first time
func newPaymentFromIntent(pi *provider.PaymentIntent, userID string, status model.PaymentStatus) *model.Payment {
	payment := &model.Payment{
		ID:                    uuid.NewString(),
		UserID:                userID,
		StripePaymentIntentID: &pi.ID,
		Amount:                provider.ToMajorUnits(pi.Amount, pi.Currency),
		Currency:              pi.Currency,
		Status:                status,
		Description:           pi.Description,
		Metadata:              toJSONMap(pi.Metadata),
	}
	if pi.LatestChargeID != "" {
		charge := pi.LatestChargeID
		payment.StripeChargeID = &charge
	}
	return payment
}

func toJSONMap(m map[string]string) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// bestEffort logs and counts a failure of a step that must not affect the event outcome
func (r *Reconciler) bestEffort(step string, err error, fields ...zap.Field) {
	metrics.IncBestEffortFailure(step)
	r.logger.Warn("Best-effort step failed",
		append(fields, zap.String("step", step), zap.Error(err))...)
}
