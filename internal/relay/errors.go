package relay

import "errors"

// ErrUpstreamUnavailable marks a model connection that could not be
// established or dropped. Recovery is a later connect attempt; the hub
// never retries in a loop on its own.
var ErrUpstreamUnavailable = errors.New("upstream model endpoint unavailable")
