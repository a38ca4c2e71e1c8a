package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_scans_total",
		Help: "Barcode scans by outcome.",
	}, []string{"result"})

	bulkAbsentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_bulk_absent_total",
		Help: "Bulk absentee runs by outcome.",
	}, []string{"result"})

	otpIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_otp_issued_total",
		Help: "One-time passwords issued.",
	})
)
