package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/envelope"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/metrics"
)

// HandleCheckoutCompleted settles a completed checkout session: the payment is
// recorded as succeeded and the procedure it pays for reaches its paid status.
// Invoice and bundled subscription follow as best-effort steps.
func (r *Reconciler) HandleCheckoutCompleted(ctx context.Context, event *provider.Event) error {
	session := event.CheckoutSession
	if session == nil {
		return missingObject(event.Type)
	}

	if !session.IsPaid() {
		return r.revertUnpaidCheckout(ctx, session)
	}

	env, err := envelope.Parse(session.Metadata)
	if err != nil {
		return err
	}

	logger := r.logger.With(
		zap.String("session_id", session.ID),
		zap.String("payment_intent_id", session.PaymentIntentID),
		zap.String("procedure_id", env.ProcedureID),
	)

	if err := env.RequireProcedure(); err != nil {
		return err
	}

	procedure, err := r.repos.Procedure.GetByID(ctx, env.ProcedureID)
	if err != nil {
		return err
	}
	if procedure == nil {
		logger.Warn("Checkout session references an unknown procedure")
		return nil
	}

	target := model.PaidTarget(env.IsInjonction)
	paid, err := r.alreadyPaid(ctx, procedure, target)
	if err != nil {
		return err
	}
	if paid {
		logger.Info("Procedure already paid, skipping")
		return nil
	}

	chargeID := r.lookupChargeID(ctx, session, logger)

	var payment *model.Payment
	err = r.tx.WithinTransaction(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		payment, err = r.upsertCheckoutPayment(ctx, repos, session, env, procedure.ID, chargeID)
		if err != nil {
			return err
		}

		_, err = repos.Procedure.ForceStatus(ctx, procedure.ID, repository.ProcedureStatusUpdate{
			Status:        target,
			PaymentStatus: model.PaymentStatusSucceeded,
			PaymentID:     &payment.ID,
		})
		return err
	})
	if err != nil {
		return err
	}
	metrics.IncPaymentReconciled(string(model.PaymentStatusSucceeded))

	logger.Info("Checkout reconciled",
		zap.String("payment_id", payment.ID),
		zap.String("status", string(target)))

	customerID := r.customerFor(ctx, session.CustomerID, env.UserID)
	r.issueInvoice(ctx, session, customerID, env, logger)
	if env.HasFacturation {
		r.bundleSubscription(ctx, customerID, env.UserID, logger)
	}
	return nil
}

// HandleAsyncPaymentFailed reverts the procedure of a checkout whose delayed payment failed
func (r *Reconciler) HandleAsyncPaymentFailed(ctx context.Context, event *provider.Event) error {
	session := event.CheckoutSession
	if session == nil {
		return missingObject(event.Type)
	}

	env, metaErr := envelope.ParseLenient(session.Metadata)
	if err := env.RequireProcedureID(); err != nil {
		return err
	}

	r.logger.Info("Checkout async payment failed",
		zap.String("session_id", session.ID),
		zap.String("procedure_id", env.ProcedureID))
	if err := r.markUnpaid(ctx, env.ProcedureID, env.IsInjonction); err != nil {
		return err
	}
	return metaErr
}

// revertUnpaidCheckout only needs the procedure id, so metadata that fails
// strict parsing still reverts the procedure before being reported.
func (r *Reconciler) revertUnpaidCheckout(ctx context.Context, session *provider.CheckoutSession) error {
	env, metaErr := envelope.ParseLenient(session.Metadata)
	r.logger.Info("Checkout completed without payment",
		zap.String("session_id", session.ID),
		zap.String("procedure_id", env.ProcedureID),
		zap.String("payment_status", session.PaymentStatus))

	if env.ProcedureID != "" {
		if err := r.markUnpaid(ctx, env.ProcedureID, env.IsInjonction); err != nil {
			return err
		}
	}
	return metaErr
}

func (r *Reconciler) alreadyPaid(ctx context.Context, procedure *model.Procedure, target model.ProcedureStatus) (bool, error) {
	if !procedure.IsPaidWith(target) {
		return false, nil
	}
	if procedure.PaymentID == nil {
		return true, nil
	}
	payment, err := r.repos.Payment.GetByID(ctx, *procedure.PaymentID)
	if err != nil {
		return false, err
	}
	return payment == nil || payment.Status == model.PaymentStatusSucceeded, nil
}

// lookupChargeID reads the charge of the session intent. A failure only loses the charge id.
func (r *Reconciler) lookupChargeID(ctx context.Context, session *provider.CheckoutSession, logger *zap.Logger) string {
	if session.PaymentIntentID == "" {
		return ""
	}
	existing, err := r.repos.Payment.GetByStripePaymentIntentID(ctx, session.PaymentIntentID)
	if err == nil && existing != nil && existing.StripeChargeID != nil {
		return *existing.StripeChargeID
	}

	pi, err := r.gateway.RetrievePaymentIntent(ctx, session.PaymentIntentID)
	if err != nil {
		logger.Warn("Failed to retrieve payment intent for charge id", zap.Error(err))
		return ""
	}
	return pi.LatestChargeID
}

// upsertCheckoutPayment finds the payment by intent id, then by session id, and
// marks it succeeded for procedureID. A payment is created when neither matches.
func (r *Reconciler) upsertCheckoutPayment(
	ctx context.Context,
	repos *repository.Repositories,
	session *provider.CheckoutSession,
	env *envelope.Envelope,
	procedureID string,
	chargeID string,
) (*model.Payment, error) {
	payment, err := repos.Payment.GetByStripePaymentIntentID(ctx, session.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		if payment, err = repos.Payment.GetByStripeCheckoutSessionID(ctx, session.ID); err != nil {
			return nil, err
		}
	}

	if payment == nil {
		payment = &model.Payment{
			ID:                      uuid.NewString(),
			UserID:                  env.UserID,
			ProcedureID:             &procedureID,
			StripeCheckoutSessionID: &session.ID,
			Amount:                  provider.ToMajorUnits(session.AmountTotal, session.Currency),
			Currency:                session.Currency,
			Status:                  model.PaymentStatusSucceeded,
			Description:             r.config.InvoiceItemDescription,
			Metadata:                toJSONMap(session.Metadata),
		}
		if session.PaymentIntentID != "" {
			payment.StripePaymentIntentID = &session.PaymentIntentID
		}
		if chargeID != "" {
			payment.StripeChargeID = &chargeID
		}
		if err := repos.Payment.Create(ctx, payment); err != nil {
			return nil, err
		}
		return payment, nil
	}

	updates := map[string]interface{}{
		"status":                     model.PaymentStatusSucceeded,
		"procedure_id":               procedureID,
		"stripe_checkout_session_id": session.ID,
	}
	if session.PaymentIntentID != "" {
		updates["stripe_payment_intent_id"] = session.PaymentIntentID
	}
	if chargeID != "" {
		updates["stripe_charge_id"] = chargeID
	}
	if err := repos.Payment.Update(ctx, payment.ID, updates); err != nil {
		return nil, err
	}
	payment.Status = model.PaymentStatusSucceeded
	payment.ProcedureID = &procedureID
	return payment, nil
}

// customerFor prefers the customer on the provider object and falls back to the user's
func (r *Reconciler) customerFor(ctx context.Context, customerID, userID string) string {
	if customerID != "" {
		return customerID
	}
	user, err := r.repos.User.GetByID(ctx, userID)
	if err != nil || user == nil || user.StripeCustomerID == nil {
		return ""
	}
	return *user.StripeCustomerID
}

// issueInvoice records the checkout payment as a paid invoice
func (r *Reconciler) issueInvoice(ctx context.Context, session *provider.CheckoutSession, customerID string, env *envelope.Envelope, logger *zap.Logger) {
	if customerID == "" {
		logger.Info("No customer for invoice, skipping")
		return
	}

	items, err := r.gateway.ListCheckoutLineItems(ctx, session.ID)
	if err != nil || len(items) == 0 {
		if err != nil {
			logger.Warn("Failed to list checkout line items, using session total", zap.Error(err))
		}
		items = []provider.LineItem{{
			Description: r.config.InvoiceItemDescription,
			Quantity:    1,
			Amount:      session.AmountTotal,
			Currency:    session.Currency,
		}}
	}

	invoiceID, err := r.gateway.CreateInvoice(ctx, &provider.CreateInvoiceRequest{
		CustomerID:  customerID,
		Currency:    session.Currency,
		Description: r.config.InvoiceItemDescription,
		Metadata: map[string]string{
			envelope.KeyUserID:      env.UserID,
			envelope.KeyProcedureID: env.ProcedureID,
			"checkoutSessionId":     session.ID,
		},
	})
	if err != nil {
		r.bestEffort("invoice", err, zap.String("session_id", session.ID))
		return
	}

	for _, item := range items {
		if item.Currency == "" {
			item.Currency = session.Currency
		}
		if err := r.gateway.AddInvoiceItem(ctx, invoiceID, customerID, item); err != nil {
			r.bestEffort("invoice", err, zap.String("invoice_id", invoiceID))
			return
		}
	}

	if err := r.gateway.FinalizeInvoice(ctx, invoiceID); err != nil {
		r.bestEffort("invoice", err, zap.String("invoice_id", invoiceID))
		return
	}
	if err := r.gateway.PayInvoiceOutOfBand(ctx, invoiceID); err != nil {
		r.bestEffort("invoice", err, zap.String("invoice_id", invoiceID))
		return
	}
	logger.Info("Invoice issued", zap.String("invoice_id", invoiceID))
}

// bundleSubscription starts the billing subscription sold with a dossier unless one is current
func (r *Reconciler) bundleSubscription(ctx context.Context, customerID, userID string, logger *zap.Logger) {
	if r.config.SubscriptionPriceID == "" || customerID == "" {
		logger.Info("Bundled subscription not configured or no customer, skipping")
		return
	}

	current, err := r.repos.Subscription.HasCurrentForUser(ctx, userID)
	if err != nil {
		r.bestEffort("subscription", err, zap.String("user_id", userID))
		return
	}
	if current {
		return
	}

	sub, err := r.gateway.CreateSubscription(ctx, &provider.CreateSubscriptionRequest{
		CustomerID: customerID,
		PriceID:    r.config.SubscriptionPriceID,
		Metadata:   map[string]string{envelope.KeyUserID: userID},
	})
	if err != nil {
		r.bestEffort("subscription", err, zap.String("user_id", userID))
		return
	}

	if err := r.saveSubscription(ctx, userID, sub); err != nil {
		r.bestEffort("subscription", err, zap.String("subscription_id", sub.ID))
		return
	}
	logger.Info("Bundled subscription created", zap.String("subscription_id", sub.ID))
}
