// Package service exposes the degradation subsystem at the transport
// boundary: status queries, call-outcome reporting and fallback values.
package service

import "github.com/google/wire"

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewStatusService)
