package contracts

import "errors"

// Error taxonomy of a batch run. Only ErrSourceNotFound aborts a run;
// the others are absorbed into degraded per-item data.
var (
	ErrSourceNotFound       = errors.New("no usable listing source")
	ErrSelectionFailed      = errors.New("item selection not verified")
	ErrConfigurationPartial = errors.New("configuration partially applied")
	ErrRefreshTimeout       = errors.New("refresh notice did not appear")
	ErrDeliveryFailed       = errors.New("result delivery failed")
	ErrRunInProgress        = errors.New("batch run already in progress")
)
