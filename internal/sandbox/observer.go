package sandbox

import "time"

// Scan outcomes reported to an Observer
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Observer receives scan lifecycle measurements
type Observer interface {
	SessionOpened()
	SessionClosed()
	AdmissionWaited(d time.Duration)
	ScanFinished(outcome string, duration time.Duration, score int)
	DownloadBlocked()
}

type nopObserver struct{}

func (nopObserver) SessionOpened()                          {}
func (nopObserver) SessionClosed()                          {}
func (nopObserver) AdmissionWaited(time.Duration)           {}
func (nopObserver) ScanFinished(string, time.Duration, int) {}
func (nopObserver) DownloadBlocked()                        {}
