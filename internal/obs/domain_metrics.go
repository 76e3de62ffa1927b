package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PurchaseCreatedTotal counts create-purchase outcomes by result:
	// created, replayed, race_resolved, invalid, error.
	PurchaseCreatedTotal *prometheus.CounterVec
	// PurchaseItemsPerPurchase records how many line items each persisted
	// purchase carries.
	PurchaseItemsPerPurchase prometheus.Histogram
	// ConfirmationEmailsTotal counts confirmation email delivery outcomes.
	ConfirmationEmailsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PurchaseCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_created_total",
			Help:      "Count of create-purchase outcomes.",
		}, []string{"result"})
		PurchaseItemsPerPurchase = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "purchase_items_per_purchase",
			Help:      "Distribution of line items per persisted purchase.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		})
		ConfirmationEmailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmation_emails_total",
			Help:      "Count of confirmation email delivery outcomes.",
		}, []string{"result"})

		mustRegisterCollector(reg, PurchaseCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PurchaseCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, PurchaseItemsPerPurchase, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				PurchaseItemsPerPurchase = v
			}
		})
		mustRegisterCollector(reg, ConfirmationEmailsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ConfirmationEmailsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
